// SPDX-License-Identifier: MIT
/*
Package audio wraps PortAudio for the acoustic link: subsystem lifecycle,
device enumeration and selection, blocking playback and capture of mono
sample buffers, and WAV file import/export for offline work.

Device selection is resolved here, before a channel is constructed; the
modem and channel never touch PortAudio.
*/
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Indirections over the PortAudio library so tests can run without a
// sound card.
var (
	paLibInitialize              = portaudio.Initialize
	paLibTerminate               = portaudio.Terminate
	paDevicesFunc                = portaudio.Devices
	paLibDefaultInputDeviceFunc  = portaudio.DefaultInputDevice
	paLibDefaultOutputDeviceFunc = portaudio.DefaultOutputDevice
)

// Initialize sets up the PortAudio subsystem. Must be called before any
// audio operation and paired with a Terminate call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Device describes one host audio device.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// HostDevices returns all devices PortAudio can see, in index order.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
	}
	return devices, nil
}

// InputDevice resolves a capture device by index. Index -1 selects the
// system default input.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == -1 {
		return paLibDefaultInputDeviceFunc()
	}

	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if infos[deviceID].MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, infos[deviceID].Name)
	}
	return infos[deviceID], nil
}

// OutputDevice resolves a playback device by index. Index -1 selects the
// system default output.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == -1 {
		return paLibDefaultOutputDeviceFunc()
	}

	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(infos) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if infos[deviceID].MaxOutputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) does not support output", deviceID, infos[deviceID].Name)
	}
	return infos[deviceID], nil
}

// ListDevices prints every host device with its capabilities, for the
// operator picking input/output indices during rig setup.
func ListDevices() error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")
	for _, d := range devices {
		deviceType := ""
		switch {
		case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
			deviceType = "Input/Output"
		case d.MaxInputChannels > 0:
			deviceType = "Input"
		case d.MaxOutputChannels > 0:
			deviceType = "Output"
		}

		fmt.Printf("[%d] %s (%s)\n", d.ID, d.Name, deviceType)
		fmt.Printf("    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Println()
	}

	return nil
}
