package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/travelsite/internal/client/admin"
	"github.com/atinyakov/travelsite/internal/models"
)

var (
	version   string
	buildDate string
)

// printCatalog writes one line per package, grouped by category.
func printCatalog(w io.Writer, c models.Catalog) {
	for _, cat := range models.Categories {
		list := c.List(cat)
		fmt.Fprintf(w, "%s (%d)\n", models.CategoryInfo[cat].Title, len(list))
		for _, p := range list {
			fmt.Fprintf(w, "  %-40s %-32s %s\n", p.ID, p.Title, p.Price)
		}
	}
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// repl runs the interactive shell loop, accepting commands to manage packages.
func repl(ctx context.Context, c *admin.Client) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("travel-admin> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, list, create, update <id>, replace <id>, delete <id>, exit")
		case "list":
			catalog, err := c.List(ctx)
			if err != nil {
				fmt.Println(err)
				continue
			}
			printCatalog(os.Stdout, catalog)
		case "create":
			rec, err := c.Create(ctx, admin.PromptPackage(scanner, os.Stdout))
			if err != nil {
				fmt.Println(err)
				continue
			}
			printJSON(os.Stdout, rec)
		case "update":
			if len(args) < 2 {
				fmt.Println("Usage: update <id>")
				continue
			}
			rec, err := c.Update(ctx, args[1], admin.PromptChanges(scanner, os.Stdout))
			if err != nil {
				fmt.Println(err)
				continue
			}
			printJSON(os.Stdout, rec)
		case "replace":
			if len(args) < 2 {
				fmt.Println("Usage: replace <id>")
				continue
			}
			rec, err := c.Replace(ctx, args[1], admin.PromptPackage(scanner, os.Stdout))
			if err != nil {
				fmt.Println(err)
				continue
			}
			printJSON(os.Stdout, rec)
		case "delete":
			if len(args) < 2 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			rec, err := c.Delete(ctx, args[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("Package %s deleted (its image is kept)\n", rec.ID)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// main parses command-line flags and dispatches to login, logout, list or shell.
func main() {
	var (
		cmd         string
		baseURL     string
		caFile      string
		sessionPath string
		showVer     bool
	)

	flag.StringVar(&cmd, "cmd", "shell", "command: login | logout | list | shell")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to a CA cert to trust (for dev HTTPS)")
	flag.StringVar(&sessionPath, "session", ".travel-admin-session.json", "where the admin session is kept")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Travel catalog admin client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	httpClient, err := admin.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	client := &admin.Client{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTP: httpClient}
	store := admin.SessionFile{Path: sessionPath}
	ctx := context.Background()

	switch cmd {
	case "login":
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			fmt.Print("Admin password: ")
			sc := bufio.NewScanner(os.Stdin)
			sc.Scan()
			password = sc.Text()
		}
		token, err := client.Login(ctx, password)
		if err != nil {
			log.Fatal(err)
		}
		if err := store.Save(admin.Session{Server: client.BaseURL, Token: token, SavedAt: time.Now()}); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Logged in.")
	case "logout":
		if s, err := store.Load(); err == nil {
			client.Token = s.Token
			_ = client.Logout(ctx)
		}
		if err := store.Clear(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Logged out.")
	case "list", "shell":
		s, err := store.Load()
		if err != nil {
			log.Fatal(err)
		}
		if s.Server != client.BaseURL {
			log.Fatalf("saved session belongs to %s, log in to %s first", s.Server, client.BaseURL)
		}
		client.Token = s.Token

		if cmd == "list" {
			catalog, err := client.List(ctx)
			var apiErr *admin.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				log.Fatal("session expired, run -cmd login again")
			}
			if err != nil {
				log.Fatal(err)
			}
			printCatalog(os.Stdout, catalog)
			return
		}
		repl(ctx, client)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
