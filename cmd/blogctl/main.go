// Command blogctl is a terminal client for the posts API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"blogrr/internal/client"
	"blogrr/internal/ui"

	"github.com/spf13/pflag"
)

const defaultAPIURL = "http://localhost:4000/api"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() error {
	return errors.New("usage: blogctl [--api URL] <list|get|create|edit|delete> [id] [flags]")
}

func run(args []string, in io.Reader, out io.Writer) error {
	flags := pflag.NewFlagSet("blogctl", pflag.ContinueOnError)
	apiURL := flags.String("api", envOr("BLOGRR_API_URL", defaultAPIURL), "Base URL of the posts API")
	timeout := flags.Duration("timeout", 10*time.Second, "Request timeout")
	title := flags.String("title", "", "Post title")
	content := flags.String("content", "", "Post content")
	author := flags.String("author", "", "Post author")
	yes := flags.BoolP("yes", "y", false, "Delete without asking for confirmation")
	flags.SetInterspersed(true)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.New(*apiURL)
	app := ui.NewApp(api)

	switch flags.Arg(0) {
	case "list":
		if err := app.Refresh(ctx); err != nil {
			_ = app.Render(out)
			return err
		}
	case "get":
		id, err := idArg(flags)
		if err != nil {
			return err
		}
		post, err := api.GetPost(ctx, id)
		if err != nil {
			return err
		}
		return ui.RenderPost(out, *post)
	case "create":
		if err := app.Navigate(ctx, ui.Creating); err != nil {
			return err
		}
		form := client.PostForm{Title: *title, Content: *content, Author: *author}
		if err := app.SubmitCreate(ctx, form); err != nil {
			_ = app.Render(out)
			return err
		}
		if err := app.Refresh(ctx); err != nil {
			return err
		}
	case "edit":
		id, err := idArg(flags)
		if err != nil {
			return err
		}
		if err := app.StartEdit(ctx, id); err != nil {
			_ = app.Render(out)
			return err
		}
		form := app.Form()
		if flags.Changed("title") {
			form.Title = *title
		}
		if flags.Changed("content") {
			form.Content = *content
		}
		if flags.Changed("author") {
			form.Author = *author
		}
		if err := app.SubmitEdit(ctx, form); err != nil {
			_ = app.Render(out)
			return err
		}
		if err := app.Refresh(ctx); err != nil {
			return err
		}
	case "delete":
		id, err := idArg(flags)
		if err != nil {
			return err
		}
		confirmed := *yes || confirm(in, out, fmt.Sprintf("Are you sure you want to delete post %d? [y/N] ", id))
		if !confirmed {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
		if err := app.Delete(ctx, id, true); err != nil {
			_ = app.Render(out)
			return err
		}
		if err := app.Refresh(ctx); err != nil {
			return err
		}
	default:
		return usage()
	}

	return app.Render(out)
}

func idArg(flags *pflag.FlagSet) (uint, error) {
	if flags.NArg() < 2 {
		return 0, fmt.Errorf("%s requires a post id", flags.Arg(0))
	}
	id, err := strconv.ParseUint(flags.Arg(1), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid post id %q", flags.Arg(1))
	}
	return uint(id), nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
