package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Danondso/drone/internal/config"
	"github.com/Danondso/drone/internal/preset"
	"github.com/Danondso/drone/internal/store"
)

func handlePresets(args []string, dbg *log.Logger) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: drone presets list|add|edit|delete|export|import")
		os.Exit(2)
	}
	cfg, _ := loadConfig(dbg)
	st := openStore(cfg, dbg)

	switch args[0] {
	case "list":
		listPresets(os.Stdout, st.Presets())

	case "add":
		fs := flag.NewFlagSet("presets add", flag.ExitOnError)
		name := fs.String("name", "", "preset name (required)")
		nf := bindNoiseFlags(fs, cfg.Noise)
		_ = fs.Parse(args[1:])
		pr, err := nf.preset(*name)
		if err != nil {
			log.Fatalf("add preset: %v", err)
		}
		if _, err := st.PresetByName(pr.Name); err == nil {
			log.Fatalf("add preset: a preset named %q already exists", pr.Name)
		}
		id, err := st.InsertPreset(pr.Record())
		if err != nil {
			log.Fatalf("add preset: %v", err)
		}
		fmt.Printf("Added preset %d: %s\n", id, pr)

	case "edit":
		if len(args) < 2 {
			log.Fatal("usage: drone presets edit ID|NAME [flags]")
		}
		pr, err := editPreset(st, args[1], args[2:])
		if err != nil {
			log.Fatalf("edit preset %s: %v", args[1], err)
		}
		fmt.Printf("Updated preset %d: %s\n", pr.ID, pr)

	case "delete":
		if len(args) < 2 {
			log.Fatal("usage: drone presets delete ID|NAME|all")
		}
		if args[1] == "all" {
			if err := st.DeleteAllPresets(); err != nil {
				log.Fatalf("delete presets: %v", err)
			}
			fmt.Println("Deleted all presets")
			return
		}
		id, err := presetID(st, args[1])
		if err == nil {
			err = st.DeletePreset(id)
		}
		if err != nil {
			log.Fatalf("delete preset %s: %v", args[1], err)
		}
		fmt.Printf("Deleted preset %d\n", id)

	case "export":
		recs := st.Presets()
		if len(args) > 1 {
			id, err := presetID(st, args[1])
			if err != nil {
				log.Fatalf("export preset %s: %v", args[1], err)
			}
			rec, _ := st.Preset(id)
			recs = []store.PresetRecord{rec}
		}
		if err := store.ExportPresets(os.Stdout, recs); err != nil {
			log.Fatalf("export presets: %v", err)
		}

	case "import":
		var r io.Reader = os.Stdin
		if len(args) > 1 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				log.Fatalf("import presets: %v", err)
			}
			defer f.Close()
			r = f
		}
		n, err := importPresets(st, r)
		if err != nil {
			log.Fatalf("import presets: %v", err)
		}
		fmt.Printf("Imported %d presets\n", n)

	default:
		log.Fatalf("unknown presets command %q", args[0])
	}
}

// presetID resolves a numeric id or a preset name.
func presetID(st *store.Store, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if _, err := st.Preset(id); err != nil {
			return 0, err
		}
		return id, nil
	}
	rec, err := st.PresetByName(ref)
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// editPreset applies flags to the stored preset ref. Flags left unset
// keep the preset's current values.
func editPreset(st *store.Store, ref string, args []string) (preset.Preset, error) {
	id, err := presetID(st, ref)
	if err != nil {
		return preset.Preset{}, err
	}
	rec, err := st.Preset(id)
	if err != nil {
		return preset.Preset{}, err
	}
	cur := preset.FromRecord(rec)

	fs := flag.NewFlagSet("presets edit", flag.ContinueOnError)
	name := fs.String("name", cur.Name, "new preset name")
	nf := bindNoiseFlags(fs, noiseDefaults(cur))
	*nf.autoBurst = cur.AutoBurst
	if err := fs.Parse(args); err != nil {
		return preset.Preset{}, err
	}

	pr, err := nf.preset(*name)
	if err != nil {
		return preset.Preset{}, err
	}
	pr.ID = cur.ID
	if other, err := st.PresetByName(pr.Name); err == nil && other.ID != pr.ID {
		return preset.Preset{}, fmt.Errorf("a preset named %q already exists", pr.Name)
	}
	if err := st.UpdatePreset(pr.Record()); err != nil {
		return preset.Preset{}, err
	}
	return pr, nil
}

// noiseDefaults turns a preset into flag defaults for editing it.
func noiseDefaults(pr preset.Preset) config.NoiseConfig {
	s := pr.Settings()
	return config.NoiseConfig{
		Color:                pr.Color.String(),
		SampleRate:           pr.SampleRate,
		BufferSize:           pr.BufferSize,
		Levels:               []float64{pr.Gain, pr.Gain, pr.Gain},
		FadeInMs:             s.FadeInMs,
		FadeOutMs:            s.FadeOutMs,
		BurstSeconds:         pr.BurstSeconds,
		BurstIntervalSeconds: pr.BurstIntervalSeconds,
	}
}

// importPresets inserts every valid preset from r, skipping names that
// already exist.
func importPresets(st *store.Store, r io.Reader) (int, error) {
	recs, err := store.ImportPresets(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range recs {
		pr := preset.FromRecord(rec)
		if err := pr.Validate(); err != nil {
			return n, err
		}
		if _, err := st.PresetByName(rec.Name); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return n, err
		}
		if _, err := st.InsertPreset(pr.Record()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func listPresets(w io.Writer, recs []store.PresetRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tGAIN\tRATE\tBUFFER\tFADE IN/OUT\tMODE")
	for _, rec := range recs {
		pr := preset.FromRecord(rec)
		mode := "continuous"
		if pr.AutoBurst {
			mode = fmt.Sprintf("burst %.1fs/%.1fs", pr.BurstSeconds, pr.BurstIntervalSeconds)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\t%d\t%.1fs/%.1fs\t%s\n",
			pr.ID, pr.Name, strings.ToLower(pr.Color.String()), pr.Gain, pr.SampleRate, pr.BufferSize,
			pr.FadeInSeconds, pr.FadeOutSeconds, mode)
	}
	_ = tw.Flush()
}

func handleCommands(args []string, dbg *log.Logger) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: drone commands list|add|edit|delete")
		os.Exit(2)
	}
	cfg, _ := loadConfig(dbg)
	st := openStore(cfg, dbg)

	switch args[0] {
	case "list":
		listCommands(os.Stdout, st.Commands())

	case "add":
		fs := flag.NewFlagSet("commands add", flag.ExitOnError)
		text := fs.String("text", "", "command text (required)")
		voice := fs.String("voice", "", "voice name")
		pitch := fs.Float64("pitch", 1, "pitch multiplier")
		rate := fs.Float64("speech-rate", 1, "speech rate multiplier")
		volume := fs.Float64("volume", 1, "volume in [0, 1]")
		pan := fs.Float64("pan", 0, "stereo pan in [-1, 1]")
		_ = fs.Parse(args[1:])
		c := store.NewCommand(*text)
		c.Voice, c.Pitch, c.SpeechRate, c.Volume, c.Pan = *voice, *pitch, *rate, *volume, *pan
		id, err := st.InsertCommand(c)
		if err != nil {
			log.Fatalf("add command: %v", err)
		}
		fmt.Printf("Added command %d: %q\n", id, c.Text)

	case "edit":
		if len(args) < 2 {
			log.Fatal("usage: drone commands edit ID [flags]")
		}
		c, err := editCommand(st, args[1], args[2:])
		if err != nil {
			log.Fatalf("edit command %s: %v", args[1], err)
		}
		fmt.Printf("Updated command %d: %q\n", c.ID, c.Text)

	case "delete":
		if len(args) < 2 {
			log.Fatal("usage: drone commands delete ID|all")
		}
		if args[1] == "all" {
			if err := st.DeleteAllCommands(); err != nil {
				log.Fatalf("delete commands: %v", err)
			}
			fmt.Println("Deleted all commands")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			log.Fatalf("delete command: invalid id %q", args[1])
		}
		if err := st.DeleteCommand(id); err != nil {
			log.Fatalf("delete command %d: %v", id, err)
		}
		fmt.Printf("Deleted command %d\n", id)

	default:
		log.Fatalf("unknown commands command %q", args[0])
	}
}

// editCommand applies flags to the stored command with the given id.
func editCommand(st *store.Store, ref string, args []string) (store.CommandRecord, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return store.CommandRecord{}, fmt.Errorf("invalid id %q", ref)
	}
	c, err := st.Command(id)
	if err != nil {
		return store.CommandRecord{}, err
	}

	fs := flag.NewFlagSet("commands edit", flag.ContinueOnError)
	fs.StringVar(&c.Text, "text", c.Text, "command text")
	fs.StringVar(&c.Voice, "voice", c.Voice, "voice name")
	fs.Float64Var(&c.Pitch, "pitch", c.Pitch, "pitch multiplier")
	fs.Float64Var(&c.SpeechRate, "speech-rate", c.SpeechRate, "speech rate multiplier")
	fs.Float64Var(&c.Volume, "volume", c.Volume, "volume in [0, 1]")
	fs.Float64Var(&c.Pan, "pan", c.Pan, "stereo pan in [-1, 1]")
	if err := fs.Parse(args); err != nil {
		return store.CommandRecord{}, err
	}
	if err := st.UpdateCommand(c); err != nil {
		return store.CommandRecord{}, err
	}
	return c, nil
}

func listCommands(w io.Writer, recs []store.CommandRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTEXT\tVOICE\tPITCH\tRATE\tVOLUME\tPAN")
	for _, c := range recs {
		voice := c.Voice
		if voice == "" {
			voice = "default"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\t%+.2f\n", c.ID, c.Text, voice, c.Pitch, c.SpeechRate, c.Volume, c.Pan)
	}
	_ = tw.Flush()
}
