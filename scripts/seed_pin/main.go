package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

func main() {
	fmt.Println("setting admin pin...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	pin := strings.TrimSpace(os.Getenv("ADMIN_PIN"))
	if pin == "" {
		pin, err = promptPin()
		if err != nil {
			log.Fatalf("cannot read pin: %v", err)
		}
	}
	if !auth.IsValidPin(pin) {
		log.Fatalf("pin must be exactly %d digits", auth.PinLength)
	}

	hash, err := auth.HashPin(pin)
	if err != nil {
		log.Fatalf("cannot hash pin: %v", err)
	}

	ctx := context.Background()
	repo, release, err := persistence.NewDocumentRepository(ctx, cfg, logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel))
	if err != nil {
		log.Fatalf("cannot open document store: %v", err)
	}
	defer release()

	if err := repo.SetAdminPinHash(ctx, hash); err != nil {
		log.Fatalf("cannot store pin: %v", err)
	}

	fmt.Printf("admin pin stored in %s store successfully!\n", cfg.Store.Driver)
}

func promptPin() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("ADMIN_PIN is not set and stdin is not a terminal")
	}
	fmt.Print("new pin: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("repeat pin: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("pins do not match")
	}
	return string(first), nil
}
