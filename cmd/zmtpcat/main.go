// zmtpcat is a thin CLI demo of the zmtpfix runtime, mirroring the role
// bgpfix's own root example.go played for bgpfix: parse a couple of flags,
// wire one socket to one endpoint, print what comes in.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/socket"
	"github.com/zmtpfix/zmtpfix/zctx"
)

var (
	optType    = flag.String("type", "pull", "socket type: pair|push|pull|pub|sub|req|rep|dealer|router")
	optBind    = flag.String("bind", "", "endpoint to bind, e.g. tcp://*:5555")
	optConnect = flag.String("connect", "", "endpoint to connect, e.g. tcp://127.0.0.1:5555")
	optSub     = flag.String("subscribe", "", "SUB topic prefix to subscribe to")
	optVerbose = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()
	if *optBind == "" && *optConnect == "" {
		fmt.Fprintln(os.Stderr, "usage: zmtpcat -type=<type> [-bind=ep] [-connect=ep]")
		os.Exit(1)
	}

	lvl := zerolog.InfoLevel
	if *optVerbose {
		lvl = zerolog.DebugLevel
	}
	logger := log.Logger.Level(lvl)

	typ, err := parseType(*optType)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad -type")
	}

	ctx := zctx.New(zctx.DefaultConfig, &logger)
	defer ctx.Terminate()

	sock := ctx.NewSocket(typ, socket.Options{Logger: &logger})
	if *optSub != "" {
		_ = sock.SetOption(socket.OptSubscribe, *optSub)
	}

	if *optBind != "" {
		if _, err := ctx.Bind(sock, *optBind); err != nil {
			logger.Fatal().Err(err).Str("endpoint", *optBind).Msg("bind failed")
		}
	}
	if *optConnect != "" {
		if err := ctx.Connect(sock, *optConnect); err != nil {
			logger.Fatal().Err(err).Str("endpoint", *optConnect).Msg("connect failed")
		}
	}

	if sock.HasOut() {
		go sendStdin(sock, &logger)
	}
	if sock.HasIn() {
		recvLoop(sock, &logger)
	} else {
		select {} // send-only socket: block forever, Ctrl-C to exit
	}
}

func parseType(s string) (socket.Type, error) {
	switch strings.ToLower(s) {
	case "pair":
		return socket.Pair, nil
	case "push":
		return socket.Push, nil
	case "pull":
		return socket.Pull, nil
	case "pub":
		return socket.Pub, nil
	case "sub":
		return socket.Sub, nil
	case "req":
		return socket.Req, nil
	case "rep":
		return socket.Rep, nil
	case "dealer":
		return socket.Dealer, nil
	case "router":
		return socket.Router, nil
	default:
		return 0, fmt.Errorf("unknown socket type %q", s)
	}
}

// sendStdin forwards each stdin line as a one-part message.
func sendStdin(sock *socket.Socket, logger *zerolog.Logger) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		f := frame.New().SetBytes([]byte(sc.Text()))
		if err := sock.Send([]*frame.Frame{f}); err != nil {
			logger.Warn().Err(err).Msg("send failed")
		}
	}
}

// recvLoop prints every received multipart message as one JSON line per
// frame (Frame.ToJSON, the same wire-ish dump bgpfix's example.go prints
// via msg.Msg.ToJSON). Recv is non-blocking, so an empty queue (ErrAgain)
// just means a short backoff before polling again.
func recvLoop(sock *socket.Socket, logger *zerolog.Logger) {
	for {
		parts, err := sock.Recv()
		if err != nil {
			if !errors.Is(err, socket.ErrAgain) {
				logger.Warn().Err(err).Msg("recv")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		for _, f := range parts {
			fmt.Println(f.String())
		}
	}
}
