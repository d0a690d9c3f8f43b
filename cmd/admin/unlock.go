package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/internal/pingate"
	"github.com/khoahotran/folio/pkg/auth"
)

var errAborted = errors.New("pin entry aborted")

const (
	keyCtrlC     = 3
	keyCtrlD     = 4
	keyBackspace = 8
	keyDelete    = 127
)

func newUnlockCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Enter the admin PIN and check it against the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := unlock(cmd.Context(), opts, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN accepted.")
			return nil
		},
	}
}

// unlock runs the PIN gate on the controlling terminal and returns the
// accepted PIN.
func unlock(ctx context.Context, opts *rootOptions, out io.Writer) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var accepted string
	store := pingate.NewFileStateStore(pingate.DefaultStateDir(), opts.server)
	gate := pingate.New(opts.client(), store, lockout.DefaultPolicy(), func(pin string) {
		accepted = pin
	})
	gate.Start()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return unlockFromReader(ctx, gate, os.Stdin, out, &accepted)
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("cannot switch terminal to raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, saved)
		fmt.Fprint(out, "\r\n")
	}()

	var mu sync.Mutex
	render := func(v pingate.View) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprint(out, "\r\033[K"+renderView(v))
	}
	go gate.Run(ctx, render)
	render(gate.View())

	keys := make(chan byte)
	go readKeys(ctx, os.Stdin, keys)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case k, ok := <-keys:
			if !ok || k == keyCtrlC || k == keyCtrlD {
				return "", errAborted
			}
			switch k {
			case keyBackspace, keyDelete:
				gate.Backspace()
			default:
				_ = gate.Input(ctx, rune(k))
			}
			v := gate.View()
			render(v)
			if v.State == pingate.Success {
				return accepted, nil
			}
		}
	}
}

// unlockFromReader feeds one line per attempt when stdin is not a terminal.
// Locked or held input is rejected rather than waited out.
func unlockFromReader(ctx context.Context, gate *pingate.Gate, in io.Reader, out io.Writer, accepted *string) (string, error) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) != auth.PinLength {
			fmt.Fprintf(out, "PIN must be %d digits\n", auth.PinLength)
			continue
		}
		for _, r := range line {
			if err := gate.Input(ctx, r); err != nil {
				v := gate.View()
				return "", fmt.Errorf("%s: %w", renderView(v), err)
			}
		}
		v := gate.View()
		fmt.Fprintln(out, renderView(v))
		if v.State == pingate.Success {
			return *accepted, nil
		}
		if v.State == pingate.Locked {
			return "", errors.New(renderView(v))
		}
		// piped input has nobody to read the hold message
		gate.Tick(time.Now().Add(pingate.FailedHold))
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errAborted
}

// readKeys forwards single bytes from r until r fails or ctx is done. A
// Read already blocked on the terminal returns with the next key press.
func readKeys(ctx context.Context, r io.Reader, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}
}

func renderView(v pingate.View) string {
	var b strings.Builder
	for i := 0; i < auth.PinLength; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i < v.Filled {
			b.WriteString("*")
		} else {
			b.WriteString("_")
		}
	}

	switch v.State {
	case pingate.Submitting:
		b.WriteString("  checking...")
	case pingate.Success:
		b.WriteString("  unlocked")
	case pingate.Failed:
		b.WriteString("  wrong PIN")
	case pingate.Locked:
		fmt.Fprintf(&b, "  too many attempts, try again in %ds", v.RemainingSeconds)
	default:
		if v.Attempts > 0 {
			fmt.Fprintf(&b, "  %d failed attempt(s)", v.Attempts)
		}
	}
	return b.String()
}
