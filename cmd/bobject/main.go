// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the bobject command-line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FerretDB/bobject/build/version"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/util/debugbuild"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
	"github.com/FerretDB/bobject/internal/util/logging"
	"github.com/FerretDB/bobject/internal/util/observability"
)

// The cli struct represents all command-line commands, fields and flags.
// It's used for parsing the user input.
//
//nolint:lll // some tags are long
type cli struct {
	Version kong.VersionFlag `help:"Print version to stdout and exit." env:"-"`

	Log struct {
		Level  string `default:"${default_log_level}" help:"${help_log_level}"`
		Format string `default:"console"              help:"${help_log_format}" enum:"${enum_log_format}"`
	} `embed:"" prefix:"log-"`

	OtelTracesURL string `default:"" help:"OpenTelemetry OTLP/HTTP traces endpoint (host:port)." name:"otel-traces-url"`
	Metrics       bool   `default:"false" help:"Dump Prometheus metrics to stderr on exit."`

	Fmt      fmtCmd      `cmd:"" help:"Parse JSON and render it as strict JSON."`
	Validate validateCmd `cmd:"" help:"Check that input is valid Extended JSON."`
	BSON     struct {
		Encode bsonEncodeCmd `cmd:"" help:"Encode an Extended JSON document as hex BSON."`
		Decode bsonDecodeCmd `cmd:"" help:"Decode hex BSON as an Extended JSON document."`
	} `cmd:"" name:"bson" help:"Convert documents between Extended JSON and BSON."`
	OID    oidCmd    `cmd:"" name:"oid" help:"Generate ObjectIDs, or print timestamps of given ones."`
	Import importCmd `cmd:"" help:"Insert Extended JSON documents into a collection."`
	Export exportCmd `cmd:"" help:"Print documents of a collection as Extended JSON."`
}

// env is passed to all commands.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	l      *zap.Logger
	reg    *prometheus.Registry
	tp     trace.TracerProvider
}

// Additional variables for the kong parsers.
var (
	logLevels = []string{
		zap.DebugLevel.String(),
		zap.InfoLevel.String(),
		zap.WarnLevel.String(),
		zap.ErrorLevel.String(),
	}

	kongOptions = []kong.Option{
		kong.Vars{
			"default_log_level": defaultLogLevel().String(),
			"default_max_depth": strconv.Itoa(jsonparse.DefaultMaxDepth),

			"enum_log_format": strings.Join(logging.Formats, ","),

			"help_log_format": fmt.Sprintf("Log format: '%s'.", strings.Join(logging.Formats, "', '")),
			"help_log_level":  fmt.Sprintf("Log level: '%s'.", strings.Join(logLevels, "', '")),

			"version": versionString(),
		},
		kong.DefaultEnvars("BOBJECT"),
		kong.Description("Tool for JSON, Extended JSON and BSON documents."),
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "bobject: %s\n", err)
		os.Exit(1)
	}
}

// defaultLogLevel returns the default log level.
func defaultLogLevel() zapcore.Level {
	if version.Get().DebugBuild {
		return zap.DebugLevel
	}

	return zap.WarnLevel
}

// versionString returns the --version output.
func versionString() string {
	info := version.Get()

	return strings.Join([]string{
		"version: " + info.Version,
		"commit: " + info.Commit,
		"branch: " + info.Branch,
		"dirty: " + strconv.FormatBool(info.Dirty),
		"package: " + info.Package,
		"debugBuild: " + strconv.FormatBool(info.DebugBuild),
		"bsonSpec: " + info.BSONSpecVersion,
	}, "\n")
}

// dumpMetrics dumps all gathered Prometheus metrics to w.
func dumpMetrics(g prometheus.Gatherer, w io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return lazyerrors.Error(err)
	}

	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}

// run parses arguments and runs the selected command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	// to increase a chance of resource finalizers to spot problems
	if debugbuild.Enabled {
		defer func() {
			runtime.GC()
			runtime.GC()
		}()
	}

	var flags cli

	parser, err := kong.New(&flags, append(kongOptions, kong.Writers(stdout, stderr))...)
	if err != nil {
		return lazyerrors.Error(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(flags.Log.Level)
	if err != nil {
		return err
	}

	if err = logging.Setup(level, flags.Log.Format); err != nil {
		return err
	}

	l := zap.L()

	if debugbuild.Enabled {
		l.Debug("This is debug build. The performance will be affected.")
	}

	if _, err = maxprocs.Set(maxprocs.Logger(l.Sugar().Debugf)); err != nil {
		l.Sugar().Warnf("Failed to set GOMAXPROCS: %s.", err)
	}

	shutdown, err := observability.SetupOtel("bobject", flags.OtelTracesURL)
	if err != nil {
		return err
	}

	defer func() {
		if sErr := shutdown(context.WithoutCancel(ctx)); sErr != nil {
			l.Warn("Failed to shutdown OpenTelemetry", zap.Error(sErr))
		}
	}()

	e := &env{
		stdin:  stdin,
		stdout: stdout,
		l:      l,
		reg:    prometheus.NewRegistry(),
		tp:     otel.GetTracerProvider(),
	}

	kctx.BindTo(ctx, (*context.Context)(nil))

	err = kctx.Run(e)

	if flags.Metrics {
		if mErr := dumpMetrics(e.reg, stderr); mErr != nil {
			l.Warn("Failed to dump metrics", zap.Error(mErr))
		}
	}

	return err
}

// readInput returns the content of the given file, or stdin for "-".
func readInput(e *env, file string) ([]byte, error) {
	var b []byte
	var err error

	if file == "-" {
		b, err = io.ReadAll(e.stdin)
	} else {
		b, err = os.ReadFile(file)
	}

	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}
