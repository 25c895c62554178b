package main

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/sirupsen/logrus"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/log"
)

// settings is the engine configuration file:
//
//	sample_rate = 48000
//	oversample  = 2
//	block_size  = 512
//	duration    = 5
//	bit_depth   = 24
//	log_level   = "debug"
type settings struct {
	SampleRate int     `hcl:"sample_rate,optional"`
	Oversample int     `hcl:"oversample,optional"`
	BlockSize  int     `hcl:"block_size,optional"`
	Duration   float64 `hcl:"duration,optional"`
	BitDepth   int     `hcl:"bit_depth,optional"`
	LogLevel   string  `hcl:"log_level,optional"`
}

func defaultSettings() settings {
	return settings{
		SampleRate: wireup.DefaultSampleRate,
		Oversample: 1,
		BlockSize:  wireup.DefaultBlockSize,
		Duration:   2,
		BitDepth:   16,
		LogLevel:   "info",
	}
}

// loadSettings decodes file over defaults. Empty path returns defaults.
func loadSettings(path string) (settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return s, fmt.Errorf("failed to parse config %s: %s", path, diags.Error())
	}
	var decoded settings
	if diags := gohcl.DecodeBody(file.Body, nil, &decoded); diags.HasErrors() {
		return s, fmt.Errorf("failed to decode config %s: %s", path, diags.Error())
	}
	s.merge(decoded)
	return s, s.validate()
}

func (s *settings) merge(o settings) {
	if o.SampleRate != 0 {
		s.SampleRate = o.SampleRate
	}
	if o.Oversample != 0 {
		s.Oversample = o.Oversample
	}
	if o.BlockSize != 0 {
		s.BlockSize = o.BlockSize
	}
	if o.Duration != 0 {
		s.Duration = o.Duration
	}
	if o.BitDepth != 0 {
		s.BitDepth = o.BitDepth
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
}

func (s settings) validate() error {
	switch {
	case s.SampleRate <= 0:
		return fmt.Errorf("invalid sample_rate %d", s.SampleRate)
	case s.BlockSize <= 0:
		return fmt.Errorf("invalid block_size %d", s.BlockSize)
	case s.Duration <= 0:
		return fmt.Errorf("invalid duration %v", s.Duration)
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// frames returns number of frames to render.
func (s settings) frames() int {
	return int(s.Duration * float64(s.SampleRate))
}

func (s settings) logger() *logrus.Logger {
	return log.ParseLevel(s.LogLevel)
}

func (s settings) graphOptions() []wireup.Option {
	return []wireup.Option{
		wireup.WithSampleRate(s.SampleRate),
		wireup.WithOversample(s.Oversample),
		wireup.WithBlockSize(s.BlockSize),
		wireup.WithLogger(s.logger()),
	}
}
