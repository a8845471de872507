package store

var seedPresets = []PresetRecord{
	{
		Name: "static", Gain: 0.55, SampleRate: 44100, BufferSize: 1024, NoiseColor: "WHITE",
		FadeInMs: 150, FadeOutMs: 250, BurstSeconds: 6.0, BurstIntervalSeconds: 12.0, AutoBurst: false,
	},
	{
		Name: "bursts", Gain: 0.72, SampleRate: 48000, BufferSize: 2048, NoiseColor: "PINK",
		FadeInMs: 120, FadeOutMs: 320, BurstSeconds: 3.5, BurstIntervalSeconds: 7.5, AutoBurst: true,
	},
}

var seedCommands = []CommandRecord{
	{Text: "Kneel", Pitch: 0.92, SpeechRate: 0.95, Volume: 0.90, Pan: -0.10},
	{Text: "Come Here", Pitch: 1.05, SpeechRate: 1.08, Volume: 1.00, Pan: 0.00},
	{Text: "Good Girl", Pitch: 1.12, SpeechRate: 0.90, Volume: 0.85, Pan: 0.10},
}

// seedLocked fills an empty library with the starter rows.
func (s *Store) seedLocked() {
	for _, p := range seedPresets {
		p.ID = s.lib.NextPresetID
		s.lib.NextPresetID++
		s.lib.Presets = append(s.lib.Presets, p)
	}
	for _, c := range seedCommands {
		c.ID = s.lib.NextCommandID
		s.lib.NextCommandID++
		s.lib.Commands = append(s.lib.Commands, c)
	}
}
