// Command playnote-cli は分析ノート共有サービスのCLIクライアント。
// セッションは $XDG_CONFIG_HOME/playnote/session.json に保存され、
// 複数回の起動をまたいでログイン状態が維持される。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kyohei/playnote/internal/client"
)

func usage() {
	fmt.Fprintf(os.Stderr, `playnote-cli
Usage:
  playnote-cli [-base-url URL] <cmd> [args]

Commands:
  register  -email <email> -password <password> [-name <display name>]
  login     -email <email> -password <password>
  logout
  whoami
  list
  post      -date <YYYY-MM-DD> -title <title> -body <body>
  edit      -id <id> -date <YYYY-MM-DD> -title <title> -body <body>
  rm        -id <id>                             (asks for confirmation)
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := client.NewSessionStore()
	api := client.NewAPI(*baseURL, store)
	controller := client.NewController(api)
	presenter := client.NewPresenter(api, controller)
	editor := client.NewEditor(api, presenter)

	switch cmd {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		name := fs.String("name", "", "display name (optional)")
		fs.Parse(args)
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}

		result, err := controller.SignUp(ctx, *email, *password, *name)
		if err != nil {
			fail(err)
		}
		fmt.Printf("registered: %s\n", result.User.Email)
		if result.Warning != nil {
			fmt.Fprintf(os.Stderr, "warning: %s\n", result.Warning.Message)
		}

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}

		if err := controller.SignIn(ctx, *email, *password); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "logout":
		if err := controller.SignOut(ctx); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "whoami":
		mustInit(ctx, controller)
		userID, email := controller.CurrentUser()
		fmt.Printf("%s (%s)\n", email, userID)

	case "list":
		mustInit(ctx, controller)
		if err := presenter.Reload(ctx); err != nil {
			fail(err)
		}
		for _, e := range presenter.Entries() {
			marker := " "
			if presenter.CanModify(e) {
				marker = "*"
			}
			fmt.Printf("%s %4d  %s  %-12s  %s\n", marker, e.ID, e.SessionDate, presenter.AuthorName(e), e.Title)
		}

	case "post":
		fs := flag.NewFlagSet("post", flag.ExitOnError)
		date := fs.String("date", "", "session date (YYYY-MM-DD)")
		title := fs.String("title", "", "title")
		body := fs.String("body", "", "body")
		fs.Parse(args)

		mustInit(ctx, controller)
		editor.SetFields(*date, *title, *body)
		if err := editor.Submit(ctx); err != nil {
			fail(err)
		}
		fmt.Println("posted")

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ExitOnError)
		id := fs.Int64("id", 0, "entry id")
		date := fs.String("date", "", "session date (YYYY-MM-DD)")
		title := fs.String("title", "", "title")
		body := fs.String("body", "", "body")
		fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		mustInit(ctx, controller)
		if err := presenter.Reload(ctx); err != nil {
			fail(err)
		}
		entry, ok := findEntry(presenter.Entries(), *id)
		if !ok {
			fail(fmt.Errorf("entry %d not found", *id))
		}
		if err := editor.StartEdit(entry); err != nil {
			fail(err)
		}
		editor.SetFields(*date, *title, *body)
		if err := editor.Submit(ctx); err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.Int64("id", 0, "entry id")
		fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		mustInit(ctx, controller)
		if err := presenter.Reload(ctx); err != nil {
			fail(err)
		}
		if err := presenter.Delete(ctx, *id, confirmDelete(*id)); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// mustInit は保存済みセッションを復元し、未認証なら終了する。
func mustInit(ctx context.Context, controller *client.Controller) {
	if err := controller.Init(ctx); err != nil {
		fail(err)
	}
	if controller.State() != client.StateAuthenticated {
		fail(fmt.Errorf("not logged in (run: playnote-cli login)"))
	}
}

func findEntry(entries []client.Entry, id int64) (client.Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return client.Entry{}, false
}

// confirmDelete は標準入力でy/Nの確認を取る。
func confirmDelete(id int64) func() bool {
	return func() bool {
		fmt.Fprintf(os.Stderr, "delete entry %s? [y/N]: ", strconv.FormatInt(id, 10))
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(line), "y")
	}
}
