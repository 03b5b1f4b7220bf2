package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/fieldcrew/crew-tracker-api/internal/platform/config"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/logging"
)

// Dev-only token issuer. It signs HS256 access tokens with the same shared
// secret the API verifies, so local runs can exercise real bearer auth.

type options struct {
	Secret   string
	Audience string
	TTL      time.Duration
	Listen   string
}

func main() {
	opt := options{
		Secret:   os.Getenv("SUPABASE_JWT_SECRET"),
		Audience: config.DefaultAudience,
		TTL:      30 * time.Minute,
		Listen:   ":5556",
	}

	root := &cobra.Command{
		Use:          "devjwt",
		Short:        "Mint local access tokens for the crew tracker API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opt.Secret, "secret", opt.Secret, "HS256 signing secret (defaults to $SUPABASE_JWT_SECRET).")
	root.PersistentFlags().StringVar(&opt.Audience, "audience", opt.Audience, "Token audience.")
	root.PersistentFlags().DurationVar(&opt.TTL, "ttl", opt.TTL, "Token lifetime.")

	mint := &cobra.Command{
		Use:   "mint SUBJECT",
		Short: "Print a signed token for SUBJECT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := mintToken(opt, args[0], time.Now().UTC())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /token?sub=... over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opt)
		},
	}
	serve.Flags().StringVar(&opt.Listen, "listen", opt.Listen, "A host:port to listen on.")

	root.AddCommand(mint, serve)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func mintToken(opt options, sub string, now time.Time) (string, error) {
	if opt.Secret == "" {
		return "", fmt.Errorf("a signing secret is required (--secret or SUPABASE_JWT_SECRET)")
	}
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", fmt.Errorf("missing subject")
	}
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{opt.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(opt.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opt.Secret))
}

func runServer(opt options) error {
	if opt.Secret == "" {
		return fmt.Errorf("a signing secret is required (--secret or SUPABASE_JWT_SECRET)")
	}
	log := logging.New("devjwt", logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	//   GET /token?sub=<user id>
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		tok, err := mintToken(opt, sub, now)
		if err != nil {
			log.Error("mint token", "err", err)
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": tok,
			"sub":   sub,
			"aud":   opt.Audience,
			"exp":   now.Add(opt.TTL).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              opt.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("devjwt listening", "addr", opt.Listen, "aud", opt.Audience, "ttl", opt.TTL.String())
	return srv.ListenAndServe()
}
