//go:build darwin

package config

const defaultHotkeyKey = "F8"
