// Package comments holds the comment tree embedded in a review: an ordered
// list of top-level comments, each owning an ordered list of replies.
// Nesting stops at the reply level. The tree is mutated in memory and
// persisted by the review store as a single document write.
package comments

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyContent = errors.New("comment content can't be empty")
	ErrNotFound     = errors.New("comment not found")
	ErrForbidden    = errors.New("caller is not allowed to modify this comment")
)

// Author is the identity snapshot taken when a comment is created.
// It is denormalized on purpose: renaming a user later must not rewrite
// every review document they ever commented on.
type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Avatar string `json:"avatar,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"` // empty for top-level comments
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Mentions  []int64   `json:"mentions,omitempty"`
	Likes     []int64   `json:"likes,omitempty"`
	Replies   []Comment `json:"replies,omitempty"` // populated on top-level comments only
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tree is the ordered set of top-level comments, newest first.
type Tree []Comment

// CanEdit reports whether callerID may edit the comment. Editing is never
// escalated: only the comment's own author qualifies.
func CanEdit(c Comment, callerID int64) bool {
	return c.Author.ID == callerID
}

// CanDelete reports whether callerID may delete the comment. The review's
// author holds a moderation right over every comment on their review.
func CanDelete(c Comment, callerID, reviewAuthorID int64) bool {
	return c.Author.ID == callerID || callerID == reviewAuthorID
}

// New builds a fresh comment node with a generated id and the author
// snapshot. Content is trimmed; an empty result is rejected.
func New(author Author, content string, mentions []int64, now time.Time) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyContent
	}
	return Comment{
		ID:        uuid.New().String(),
		Author:    author,
		Content:   content,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// location addresses one node in the tree. reply == -1 means a top-level
// comment at index top; otherwise the node is t[top].Replies[reply].
type location struct {
	top   int
	reply int
}

// resolve scans the whole top level first, then every comment's replies.
// Two passes, depth two, first match wins. Ids are uuid-generated so a
// cross-level duplicate cannot occur.
func (t Tree) resolve(id string) (location, bool) {
	for i := range t {
		if t[i].ID == id {
			return location{top: i, reply: -1}, true
		}
	}
	for i := range t {
		for j := range t[i].Replies {
			if t[i].Replies[j].ID == id {
				return location{top: i, reply: j}, true
			}
		}
	}
	return location{}, false
}

func (t Tree) at(loc location) *Comment {
	if loc.reply < 0 {
		return &t[loc.top]
	}
	return &t[loc.top].Replies[loc.reply]
}

// Find returns the node with the given id, if present.
func (t Tree) Find(id string) (*Comment, bool) {
	loc, ok := t.resolve(id)
	if !ok {
		return nil, false
	}
	return t.at(loc), true
}

// Len counts every node in the tree, replies included. The review's
// denormalized comment_count always equals this.
func (t Tree) Len() int {
	n := len(t)
	for i := range t {
		n += len(t[i].Replies)
	}
	return n
}

// Insert places c into the tree. With no parent the comment is prepended
// to the top level (newest first). With a parent id, the parent must be an
// existing top-level comment and c is appended to its replies; replying to
// a reply is not a thing, so a reply id as parent resolves to ErrNotFound.
func (t *Tree) Insert(c Comment, parentID string) error {
	if parentID == "" {
		c.ParentID = ""
		*t = append(Tree{c}, *t...)
		return nil
	}
	for i := range *t {
		if (*t)[i].ID == parentID {
			c.ParentID = parentID
			c.Replies = nil
			(*t)[i].Replies = append((*t)[i].Replies, c)
			return nil
		}
	}
	return ErrNotFound
}

// Edit replaces the content of the node with the given id. Only the node's
// author may edit. Structure (id, parent, author, position) never changes.
func (t Tree) Edit(id string, callerID int64, content string, now time.Time) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	loc, ok := t.resolve(id)
	if !ok {
		return nil, ErrNotFound
	}
	node := t.at(loc)
	if !CanEdit(*node, callerID) {
		return nil, ErrForbidden
	}
	node.Content = content
	node.UpdatedAt = now
	return node, nil
}

// Delete removes the node with the given id. A top-level delete cascades
// its replies in the same removal. Returns how many nodes were removed so
// the caller can keep the denormalized count honest.
func (t *Tree) Delete(id string, callerID, reviewAuthorID int64) (int, error) {
	loc, ok := t.resolve(id)
	if !ok {
		return 0, ErrNotFound
	}
	node := t.at(loc)
	if !CanDelete(*node, callerID, reviewAuthorID) {
		return 0, ErrForbidden
	}
	if loc.reply < 0 {
		removed := 1 + len((*t)[loc.top].Replies)
		*t = append((*t)[:loc.top], (*t)[loc.top+1:]...)
		return removed, nil
	}
	parent := &(*t)[loc.top]
	parent.Replies = append(parent.Replies[:loc.reply], parent.Replies[loc.reply+1:]...)
	return 1, nil
}

// ToggleLike flips callerID's like on the node. Returns the new state:
// true when the like was added, false when it was removed.
func (t Tree) ToggleLike(id string, callerID int64) (bool, error) {
	loc, ok := t.resolve(id)
	if !ok {
		return false, ErrNotFound
	}
	node := t.at(loc)
	for i, uid := range node.Likes {
		if uid == callerID {
			node.Likes = append(node.Likes[:i], node.Likes[i+1:]...)
			return false, nil
		}
	}
	node.Likes = append(node.Likes, callerID)
	return true, nil
}
