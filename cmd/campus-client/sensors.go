package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	"github.com/BrandonDHaskell/Portunus/campus/internal/kv"
)

const pinKey = "campus.pin_hash"

// readSecret prompts on stderr and reads without echo when stdin is a
// terminal; piped input is read as one line.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(string(b)), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// pinBiometric stands in for the fingerprint/face sensor: the user must
// re-enter the PIN chosen at login.
type pinBiometric struct {
	store kv.Store
}

func (b pinBiometric) Authenticate(ctx context.Context, reason string) (bool, error) {
	hash, err := b.store.Get(ctx, pinKey)
	if err != nil {
		return false, fmt.Errorf("no PIN enrolled: %w", err)
	}
	pin, err := readSecret(reason + "\nPIN: ")
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(pin)) == nil, nil
}

func enrollPIN(ctx context.Context, store kv.Store, pin string) error {
	if len(pin) < 4 {
		return errors.New("PIN must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.Set(ctx, pinKey, hash)
}

// staticLocator reports the coordinates given on the command line. With
// none given, permission is "denied".
type staticLocator struct {
	gps *types.GPS
}

func (l staticLocator) RequestPermission(context.Context) (bool, error) { return l.gps != nil, nil }

func (l staticLocator) Current(context.Context) (*types.GPS, error) {
	if l.gps == nil {
		return nil, errors.New("no location")
	}
	g := *l.gps
	return &g, nil
}

type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Success(msg string) { fmt.Fprintln(n.w, "✓ "+msg) }
func (n consoleNotifier) Warning(msg string) { fmt.Fprintln(n.w, "! "+msg) }
func (n consoleNotifier) Error(msg string)   { fmt.Fprintln(n.w, "✗ "+msg) }
