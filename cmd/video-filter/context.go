package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/video-filter/internal/config"
	"github.com/menta2k/video-filter/pkg/filter"
	"github.com/menta2k/video-filter/pkg/video"
)

type commandContext struct {
	configFlag    *string
	debugFlag     *bool
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *logrus.Logger
}

func newCommandContext(configFlag *string, debugFlag *bool, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		debugFlag:     debugFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return config.Default()
	}
	return cfg
}

func (c *commandContext) log() *logrus.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		format := cfg.Logging.Format
		if c.logFormatFlag != nil && *c.logFormatFlag != "" {
			format = *c.logFormatFlag
		}
		debug := c.debugFlag != nil && *c.debugFlag
		c.logger = initLogger(os.Stderr, cfg.Logging.Level, format, debug)
	})
	return c.logger
}

// initLogger initializes the logger with appropriate level and formatter
func initLogger(out io.Writer, level, format string, debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if debugMode {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)

	text := strings.EqualFold(format, "text") || debugMode
	if strings.EqualFold(format, "auto") || format == "" {
		text = text || isTerminal(out)
	}
	if strings.EqualFold(format, "json") {
		text = false
	}

	if text {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   isTerminal(out),
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// filterSpecs returns the specs given on the command line, or the configured default chain
func (c *commandContext) filterSpecs(flagSpecs []string) []string {
	if len(flagSpecs) > 0 {
		return flagSpecs
	}
	return c.configValue().Filters.Default
}

// openEditor opens path with the filter chain and cut list from the command line
func (c *commandContext) openEditor(ctx context.Context, path string, specs []string, cuts []string) (*video.Editor, error) {
	cfg := c.configValue()

	chain, err := filter.ParseChain(c.filterSpecs(specs))
	if err != nil {
		return nil, err
	}

	opts := cfg.EditorOptions()
	opts.Logger = c.log()
	editor := video.NewEditor(opts)
	if err := editor.Open(ctx, path); err != nil {
		return nil, err
	}
	for _, f := range chain.Filters() {
		editor.AddFilter(f)
	}

	if len(cuts) > 0 {
		list, err := video.ParseCutList(strings.Join(cuts, ","))
		if err != nil {
			editor.Close()
			return nil, err
		}
		if err := editor.SetCutList(list); err != nil {
			editor.Close()
			return nil, fmt.Errorf("cut list: %w", err)
		}
	}
	return editor, nil
}
