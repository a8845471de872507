//go:build darwin

package output

import "github.com/gordonklaus/portaudio"

// DeviceName returns the PortAudio name of the default output device.
func DeviceName() string {
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		return ""
	}
	return dev.Name
}
