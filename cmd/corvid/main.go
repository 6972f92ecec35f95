package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/herohde/corvid/pkg/engine"
	"github.com/herohde/corvid/pkg/engine/uci"
	"github.com/seekerror/logw"
)

var (
	hash     = flag.Uint64("hash", engine.DefaultHashMB, "Ordering table size in MB")
	level    = flag.Int("level", engine.DefaultLevel, "Playing level 0-100 (0 plays random moves)")
	evalFile = flag.String("evalfile", "", "NNUE network file (classical evaluation if unset)")
	bookFile = flag.String("bookfile", "", "Polyglot opening book file")
	seed     = flag.Int64("seed", 0, "Random seed (current time if zero)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: corvid [options]

CORVID is a UCI chess engine with Chess960 support.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	opts := []engine.Option{
		engine.WithOptions(engine.Options{
			Hash:         *hash,
			Level:        *level,
			MoveOverhead: engine.DefaultMoveOverhead,
			EvalFile:     *evalFile,
			BookFile:     *bookFile,
		}),
	}
	if *seed != 0 {
		opts = append(opts, engine.WithSeed(*seed))
	} else {
		opts = append(opts, engine.WithSeed(time.Now().UnixNano()))
	}

	e := engine.New(ctx, "corvid", "herohde", opts...)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
