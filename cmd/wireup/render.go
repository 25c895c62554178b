package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/log"
	"github.com/dudk/wireup/metric"
	"github.com/dudk/wireup/mp3"
	"github.com/dudk/wireup/wav"
)

type renderCommand struct {
	patch  string
	in     string
	out    string
	config string
	set    stringList
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render patch into wav or mp3 file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.patch, "patch", "sine", "built-in patch to render")
	fs.StringVar(&cmd.in, "in", "", "wav file fed into input bus")
	fs.StringVar(&cmd.out, "out", "", "output .wav or .mp3 file (required)")
	fs.StringVar(&cmd.config, "config", "", "hcl engine config file")
	fs.Var(&cmd.set, "set", "signal assignment name=value, repeatable")
}

func (cmd *renderCommand) Validate() error {
	var message string
	if cmd.out == "" {
		message = message + "Missing -out required flag\n"
	}
	switch strings.ToLower(filepath.Ext(cmd.out)) {
	case ".wav", ".mp3", "":
	default:
		message = message + fmt.Sprintf("Unsupported output format %s\n", cmd.out)
	}
	if message != "" {
		return errors.New(message)
	}
	return nil
}

func (cmd *renderCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	s, err := loadSettings(cmd.config)
	if err != nil {
		return err
	}
	e, err := newEngine(cmd.patch, s, cmd.Name())
	if err != nil {
		return err
	}
	if err := assign(e, cmd.set); err != nil {
		return err
	}

	var source *wav.Source
	if cmd.in != "" {
		in, err := os.Open(cmd.in)
		if err != nil {
			return err
		}
		defer in.Close()
		if source, err = wav.NewSource(in); err != nil {
			return fmt.Errorf("%s: %w", cmd.in, err)
		}
		if source.SampleRate() != s.SampleRate {
			return fmt.Errorf("%s: sample rate %d doesn't match %d", cmd.in, source.SampleRate(), s.SampleRate)
		}
	}

	out, err := os.Create(cmd.out)
	if err != nil {
		return err
	}
	defer out.Close()
	if strings.EqualFold(filepath.Ext(cmd.out), ".mp3") {
		err = renderMP3(e, out, source, s)
	} else {
		err = renderWav(e, out, source, s)
	}
	if err != nil {
		return err
	}
	s.logger().Infof("rendered %s: %v", cmd.out, metric.Get(cmd.Name()))
	return nil
}

func renderWav(e *wireup.Engine, out *os.File, source *wav.Source, s settings) error {
	sink, err := wav.NewSink(out, s.SampleRate, s.BitDepth)
	if err != nil {
		return err
	}
	if err := wav.Render(e, sink, source, s.frames(), s.BlockSize); err != nil {
		return err
	}
	return sink.Close()
}

func renderMP3(e *wireup.Engine, out *os.File, source *wav.Source, s settings) error {
	if source != nil {
		return errors.New("input is not supported for mp3 output")
	}
	sink, err := mp3.NewSink(out, s.SampleRate, mp3.DefaultBitRate, 2)
	if err != nil {
		return err
	}
	if err := mp3.Render(e, sink, s.frames(), s.BlockSize); err != nil {
		return err
	}
	return sink.Close()
}

// newEngine builds patch and activates its processor.
func newEngine(patch string, s settings, component string) (*wireup.Engine, error) {
	g, err := newGraph(patch, s)
	if err != nil {
		return nil, err
	}
	e := wireup.NewEngine(g,
		wireup.WithMetric(component),
		wireup.WithEngineLogger(log.Component(s.logger(), "engine")),
	)
	if _, err := e.Sync(); err != nil {
		return nil, err
	}
	return e, nil
}

// assign applies name=value pairs.
func assign(e *wireup.Engine, pairs []string) error {
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("invalid assignment %q: %w", pair, err)
		}
		if err := e.Set(strings.TrimSpace(name), v); err != nil {
			return err
		}
	}
	return nil
}
