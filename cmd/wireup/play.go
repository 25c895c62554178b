package main

import (
	"context"
	"flag"
	"os"

	"github.com/rakyll/portmidi"

	"github.com/dudk/wireup/log"
	"github.com/dudk/wireup/midi"
	"github.com/dudk/wireup/portaudio"
)

type playCommand struct {
	patch  string
	config string
	input  bool
	midi   bool
	set    stringList
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play patch on default device with interactive signal control"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.patch, "patch", "sine", "built-in patch to play")
	fs.StringVar(&cmd.config, "config", "", "hcl engine config file")
	fs.BoolVar(&cmd.input, "input", false, "feed default input device into input bus")
	fs.BoolVar(&cmd.midi, "midi", false, "control signals from default midi device")
	fs.Var(&cmd.set, "set", "signal assignment name=value, repeatable")
}

func (cmd *playCommand) Run() error {
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
	logger := s.logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Graph().Events().Run(ctx)

	if cmd.midi {
		if err := portmidi.Initialize(); err != nil {
			return err
		}
		defer portmidi.Terminate()
		c := midi.NewController(e, log.Component(logger, "midi"))
		p := e.Active()
		if p.Has("frequency") {
			c.BindNotes("frequency", "")
		}
		for control, signal := range map[int64]string{1: "frequency", 7: "volume", 74: "feedback"} {
			if !p.Has(signal) {
				continue
			}
			if signal == "frequency" {
				c.Bind(control, signal, midi.Exponential(20, 20000))
			} else {
				c.Bind(control, signal, nil)
			}
		}
		if err := c.Open(portmidi.DefaultInputDeviceID()); err != nil {
			return err
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := c.Run(ctx); err != nil && err != context.Canceled {
				logger.Warn(err)
			}
		}()
		defer func() {
			cancel()
			<-done
			c.Close()
		}()
	}

	var options []portaudio.Option
	if cmd.input {
		options = append(options, portaudio.WithInput())
	}
	host := portaudio.NewHost(e, s.SampleRate, s.BlockSize, options...)
	if err := host.Start(); err != nil {
		return err
	}
	defer host.Stop()
	logger.Infof("playing %s, type help for commands", cmd.patch)

	sess := session{engine: e, component: cmd.Name()}
	return sess.repl(os.Stdout)
}
