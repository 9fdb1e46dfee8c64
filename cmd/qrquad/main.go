package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qrquad/internal/app"
	"qrquad/internal/config"
	"qrquad/internal/scan"
	"qrquad/internal/utils"
)

func main() {
	cmd := flag.String("cmd", "scan", "Command: scan|show|set-url|set-code-name|clear-url|clear-code-name|history|clear-history")
	value := flag.String("value", "", "New value (for set-url/set-code-name)")
	in := flag.String("in", "", "Read decoded values from this file instead of stdin (for scan)")
	flag.Parse()

	if err := run(*cmd, *value, *in); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(cmd, value, in string) error {
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(env.LogPath, env.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	rt, err := app.New(env, logger.Logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "scan":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return scanFlow(ctx, rt, inputSource(in), os.Stdout)
	case "show":
		st, err := rt.Settings.Load()
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			config.KeyDomainName: st.DomainName,
			config.KeyCodeName:   st.CodeName,
			"configured":         !st.IsDefault(),
		})
	case "set-url":
		return updated(rt.Settings.SetDomainName(value))
	case "set-code-name":
		return updated(rt.Settings.SetCodeName(value))
	case "clear-url":
		return updated(rt.Settings.ResetDomainName())
	case "clear-code-name":
		return updated(rt.Settings.ResetCodeName())
	case "history":
		captures, err := rt.Journal.List()
		if err != nil {
			return err
		}
		return printJSON(captures)
	case "clear-history":
		if err := rt.Journal.Clear(); err != nil {
			return err
		}
		fmt.Println("capture history cleared")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// inputSource opens the -in file, or returns stdin when none is given.
func inputSource(in string) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		if in == "" {
			return os.Stdin, nil
		}
		return os.Open(in)
	}
}

// scanFlow runs one capture session over line-delimited decoded values.
// Opening the input is the session's permission check.
func scanFlow(ctx context.Context, rt *app.Runtime, open func() (io.Reader, error), out io.Writer) error {
	st, err := rt.Settings.Load()
	if err != nil {
		return err
	}

	var src io.Reader
	sess, err := scan.NewSession(st, rt.Dispatcher,
		scan.WithPermission(func() error {
			r, err := open()
			if err != nil {
				return err
			}
			src = r
			return nil
		}),
		scan.WithObserver(scan.ObserverFunc(func(_ string, ev scan.Event) {
			if msg := ev.Message(); msg != "" {
				fmt.Fprintln(out, msg)
			}
		})),
		scan.WithObserver(rt.Metrics),
	)
	rt.Metrics.SessionStart(err)
	if errors.Is(err, scan.ErrNotConfigured) {
		return fmt.Errorf("not configured: set the server url and code name first (-cmd set-url, -cmd set-code-name)")
	}
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok && src != os.Stdin {
		defer c.Close()
	}
	fmt.Fprintln(out, "Scan four QR codes")

	values := make(chan string)
	go readLines(ctx, src, values)

	if err := sess.Consume(ctx, values); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	// The outcome is logged and journaled; wait so the process does not cut the request short.
	rt.Dispatcher.Wait()
	return nil
}

func readLines(ctx context.Context, r io.Reader, values chan<- string) {
	defer close(values)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		v := strings.TrimSpace(sc.Text())
		if v == "" {
			continue
		}
		select {
		case values <- v:
		case <-ctx.Done():
			return
		}
	}
}

func updated(st config.Settings, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("%s=%s %s=%s\n", config.KeyDomainName, st.DomainName, config.KeyCodeName, st.CodeName)
	return nil
}

func printJSON(v any) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}
