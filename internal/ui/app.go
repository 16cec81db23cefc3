// Package ui is the view model behind blogctl: a small state machine over the
// posts API with a plain-text renderer.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"blogrr/internal/client"
	"blogrr/internal/models"
)

// View is the screen the app is showing.
type View int

const (
	Listing View = iota
	Creating
	Editing
)

func (v View) String() string {
	switch v {
	case Listing:
		return "listing"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Banner messages.
const (
	MsgFetchFailed  = "Failed to fetch posts"
	MsgLoadFailed   = "Failed to load post"
	MsgCreateFailed = "Failed to create post"
	MsgUpdateFailed = "Failed to update post"
	MsgDeleteFailed = "Failed to delete post"
)

// PostsAPI is the subset of the posts client the app drives.
type PostsAPI interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, form client.PostForm) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, form client.PostForm) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

// App holds the client-side state. State changes only when a request
// completes or on explicit navigation.
type App struct {
	api       PostsAPI
	view      View
	editingID uint
	posts     []models.Post
	banner    string
	formError string
	form      client.PostForm
}

// NewApp returns an app on the list view with no posts loaded.
func NewApp(api PostsAPI) *App {
	return &App{api: api, view: Listing, posts: []models.Post{}}
}

func (a *App) View() View            { return a.view }
func (a *App) EditingID() uint       { return a.editingID }
func (a *App) Banner() string        { return a.banner }
func (a *App) FormError() string     { return a.formError }
func (a *App) Form() client.PostForm { return a.form }

// Posts returns a copy of the displayed posts.
func (a *App) Posts() []models.Post {
	out := make([]models.Post, len(a.posts))
	copy(out, a.posts)
	return out
}

// Refresh reloads the list. On failure the previous list is kept.
func (a *App) Refresh(ctx context.Context) error {
	posts, err := a.api.ListPosts(ctx)
	if err != nil {
		a.banner = MsgFetchFailed
		return err
	}
	a.posts = posts
	a.banner = ""
	return nil
}

// Navigate switches to the list (reloading it) or to an empty create form.
// Editing is entered through StartEdit.
func (a *App) Navigate(ctx context.Context, v View) error {
	switch v {
	case Listing:
		a.view = Listing
		a.editingID = 0
		a.formError = ""
		return a.Refresh(ctx)
	case Creating:
		a.view = Creating
		a.editingID = 0
		a.formError = ""
		a.form = client.PostForm{}
		return nil
	default:
		return fmt.Errorf("cannot navigate to %s", v)
	}
}

// StartEdit loads the post and opens the edit form only once it has arrived.
func (a *App) StartEdit(ctx context.Context, id uint) error {
	post, err := a.api.GetPost(ctx, id)
	if err != nil {
		a.banner = MsgLoadFailed
		return err
	}
	a.view = Editing
	a.editingID = post.ID
	a.formError = ""
	a.form = client.PostForm{Title: post.Title, Content: post.Content, Author: post.Author}
	return nil
}

// SubmitCreate validates the form, sends it and on success shows the new
// post first in the list.
func (a *App) SubmitCreate(ctx context.Context, form client.PostForm) error {
	if err := form.Validate(); err != nil {
		a.formError = validationMessage(err)
		a.form = form
		return err
	}

	post, err := a.api.CreatePost(ctx, form)
	if err != nil {
		a.banner = MsgCreateFailed
		a.form = form
		return err
	}

	a.posts = append([]models.Post{*post}, a.posts...)
	a.view = Listing
	a.banner = ""
	a.formError = ""
	a.form = client.PostForm{}
	return nil
}

// SubmitEdit sends the full edit form and replaces the post in place.
func (a *App) SubmitEdit(ctx context.Context, form client.PostForm) error {
	if a.view != Editing {
		return fmt.Errorf("not editing a post (view is %s)", a.view)
	}
	if err := form.Validate(); err != nil {
		a.formError = validationMessage(err)
		a.form = form
		return err
	}

	post, err := a.api.UpdatePost(ctx, a.editingID, form)
	if err != nil {
		a.banner = MsgUpdateFailed
		a.form = form
		return err
	}

	for i := range a.posts {
		if a.posts[i].ID == post.ID {
			a.posts[i] = *post
		}
	}
	a.view = Listing
	a.editingID = 0
	a.banner = ""
	a.formError = ""
	a.form = client.PostForm{}
	return nil
}

// Delete removes a post once the user has confirmed. Without confirmation it does nothing.
func (a *App) Delete(ctx context.Context, id uint, confirmed bool) error {
	if !confirmed {
		return nil
	}
	if err := a.api.DeletePost(ctx, id); err != nil {
		a.banner = MsgDeleteFailed
		return err
	}

	kept := a.posts[:0]
	for _, p := range a.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	a.posts = kept
	a.banner = ""
	return nil
}

func validationMessage(err error) string {
	var vErr *client.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return client.ErrFieldsRequired
}

// Render writes the current screen as text. It reads state only.
func (a *App) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Blogrr.\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	if a.banner != "" {
		fmt.Fprintf(&b, "! %s\n", a.banner)
	}

	switch a.view {
	case Listing:
		renderList(&b, a.posts)
	case Creating:
		b.WriteString("Create New Post\n")
		renderForm(&b, a.form, a.formError)
	case Editing:
		fmt.Fprintf(&b, "Edit Post #%d\n", a.editingID)
		renderForm(&b, a.form, a.formError)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderList(b *strings.Builder, posts []models.Post) {
	if len(posts) == 0 {
		b.WriteString("No posts yet. Create one to get started!\n")
		return
	}
	for _, p := range posts {
		b.WriteString("\n")
		writePost(b, p)
	}
}

// RenderPost writes a single post the way the list shows it.
func RenderPost(w io.Writer, p models.Post) error {
	var b strings.Builder
	writePost(&b, p)
	_, err := io.WriteString(w, b.String())
	return err
}

func writePost(b *strings.Builder, p models.Post) {
	fmt.Fprintf(b, "#%d %s\n", p.ID, p.Title)
	fmt.Fprintf(b, "By: %s | %s\n", p.Author, p.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(b, "%s\n", p.Content)
}

func renderForm(b *strings.Builder, form client.PostForm, formError string) {
	if formError != "" {
		fmt.Fprintf(b, "! %s\n", formError)
	}
	fmt.Fprintf(b, "Title:   %s\n", form.Title)
	fmt.Fprintf(b, "Author:  %s\n", form.Author)
	fmt.Fprintf(b, "Content: %s\n", form.Content)
}
