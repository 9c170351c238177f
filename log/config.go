package log

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

const sinkScheme = "lumberjack"

var ErrUnknownSink = errors.New("unknown lumberjack sink")

type FileConfig struct {
	Filepath   string `yaml:"filepath"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

type Config struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`

	File FileConfig `yaml:"file"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Console: true}
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse log config: %w", err)
	}

	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read log config: %w", err)
	}

	return ParseConfig(data)
}

type lumberjackSink struct{ *lumberjack.Logger }

func (lumberjackSink) Sync() error { return nil }

// zap keeps sink factories in a process-wide table, so the scheme is
// registered once and each NewLogger call gets its own opaque key.
var (
	sinkOnce sync.Once
	sinkErr  error
	sinkSeq  atomic.Int64
	sinks    sync.Map // opaque key -> *lumberjack.Logger
)

func registerSink() error {
	sinkOnce.Do(func() {
		sinkErr = zap.RegisterSink(sinkScheme, func(u *url.URL) (zap.Sink, error) {
			v, ok := sinks.Load(u.Opaque)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSink, u.Opaque)
			}

			return lumberjackSink{Logger: v.(*lumberjack.Logger)}, nil
		})
	})

	return sinkErr
}

func fileSinkPath(cfg FileConfig) (string, error) {
	if err := registerSink(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("sink-%d", sinkSeq.Add(1))
	sinks.Store(key, &lumberjack.Logger{
		Filename:   cfg.Filepath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,

		LocalTime: true,
	})

	return fmt.Sprintf("%s:%s", sinkScheme, key), nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",

		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			const layout = "2006/01/02 15:04:05.000"

			type appendTimeEncoder interface {
				AppendTimeLayout(time.Time, string)
			}

			if enc, ok := enc.(appendTimeEncoder); ok {
				enc.AppendTimeLayout(t, layout)

				return
			}

			enc.AppendString(t.Format(layout))
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func NewLogger(cfg Config) (Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	outputPaths := make([]string, 0)
	errorOutputPaths := make([]string, 0)

	if cfg.File.Filepath != "" {
		path, err := fileSinkPath(cfg.File)
		if err != nil {
			return nil, err
		}

		outputPaths = append(outputPaths, path)
		errorOutputPaths = append(errorOutputPaths, path)
	}

	if cfg.Console {
		outputPaths = append(outputPaths, "stdout")
		errorOutputPaths = append(errorOutputPaths, "stderr")
	}

	if len(outputPaths) == 0 {
		return Nop(), nil
	}

	zapConfig := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zapcore.PanicLevel))
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
