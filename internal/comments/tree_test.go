package comments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Author{ID: 1, Name: "Alice", Handle: "alice"}
	bob   = Author{ID: 2, Name: "Bob", Handle: "bob"}
	carol = Author{ID: 3, Name: "Carol", Handle: "carol"}
)

func mustNew(t *testing.T, author Author, content string) Comment {
	t.Helper()
	c, err := New(author, content, nil, time.Now())
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := New(alice, "  nice movie  ", []int64{3}, now)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "nice movie", c.Content)
	assert.Equal(t, alice, c.Author)
	assert.Equal(t, []int64{3}, c.Mentions)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
	assert.Empty(t, c.ParentID)

	_, err = New(alice, "   ", nil, now)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestInsertTopLevelPrepends(t *testing.T) {
	var tree Tree

	first := mustNew(t, alice, "first")
	second := mustNew(t, bob, "second")
	require.NoError(t, tree.Insert(first, ""))
	require.NoError(t, tree.Insert(second, ""))

	require.Len(t, tree, 2)
	assert.Equal(t, second.ID, tree[0].ID, "newest comment should come first")
	assert.Equal(t, first.ID, tree[1].ID)
	assert.Equal(t, 2, tree.Len())
}

func TestInsertReplyAppends(t *testing.T) {
	var tree Tree
	parent := mustNew(t, alice, "parent")
	require.NoError(t, tree.Insert(parent, ""))

	r1 := mustNew(t, bob, "reply one")
	r2 := mustNew(t, carol, "reply two")
	require.NoError(t, tree.Insert(r1, parent.ID))
	require.NoError(t, tree.Insert(r2, parent.ID))

	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, r1.ID, tree[0].Replies[0].ID, "replies keep insertion order")
	assert.Equal(t, r2.ID, tree[0].Replies[1].ID)
	assert.Equal(t, parent.ID, tree[0].Replies[0].ParentID)
	assert.Equal(t, 3, tree.Len())
}

func TestInsertReplyToMissingParent(t *testing.T) {
	var tree Tree
	require.NoError(t, tree.Insert(mustNew(t, alice, "top"), ""))

	err := tree.Insert(mustNew(t, bob, "orphan"), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, tree.Len(), "tree must be unchanged after a failed insert")
}

func TestInsertReplyToReplyIsRejected(t *testing.T) {
	var tree Tree
	parent := mustNew(t, alice, "parent")
	require.NoError(t, tree.Insert(parent, ""))
	reply := mustNew(t, bob, "reply")
	require.NoError(t, tree.Insert(reply, parent.ID))

	// a reply id is not a valid parent; nesting stops at depth two
	err := tree.Insert(mustNew(t, carol, "nested"), reply.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit(t *testing.T) {
	var tree Tree
	c := mustNew(t, alice, "original")
	require.NoError(t, tree.Insert(c, ""))

	later := c.UpdatedAt.Add(time.Minute)
	node, err := tree.Edit(c.ID, alice.ID, "updated text", later)
	require.NoError(t, err)
	assert.Equal(t, "updated text", node.Content)
	assert.Equal(t, later, node.UpdatedAt)
	assert.Equal(t, c.CreatedAt, node.CreatedAt)
	assert.Empty(t, node.ParentID)
	assert.Equal(t, c.ID, node.ID)
	assert.Equal(t, alice, node.Author)
}

func TestEditReply(t *testing.T) {
	var tree Tree
	parent := mustNew(t, alice, "parent")
	require.NoError(t, tree.Insert(parent, ""))
	reply := mustNew(t, bob, "reply")
	require.NoError(t, tree.Insert(reply, parent.ID))

	node, err := tree.Edit(reply.ID, bob.ID, "edited reply", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "edited reply", node.Content)
	assert.Equal(t, parent.ID, node.ParentID, "edit must not detach a reply")
}

func TestEditOnlyByAuthor(t *testing.T) {
	var tree Tree
	c := mustNew(t, alice, "mine")
	require.NoError(t, tree.Insert(c, ""))

	// not even the review author gets to edit someone else's comment
	_, err := tree.Edit(c.ID, bob.ID, "hijacked", time.Now())
	assert.ErrorIs(t, err, ErrForbidden)

	node, _ := tree.Find(c.ID)
	assert.Equal(t, "mine", node.Content)
}

func TestEditValidation(t *testing.T) {
	var tree Tree
	c := mustNew(t, alice, "content")
	require.NoError(t, tree.Insert(c, ""))

	_, err := tree.Edit(c.ID, alice.ID, "  ", time.Now())
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = tree.Edit("missing", alice.ID, "text", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTopLevelCascades(t *testing.T) {
	const reviewAuthor = int64(99)

	var tree Tree
	parent := mustNew(t, alice, "parent")
	sibling := mustNew(t, carol, "sibling")
	require.NoError(t, tree.Insert(parent, ""))
	require.NoError(t, tree.Insert(sibling, ""))
	require.NoError(t, tree.Insert(mustNew(t, bob, "r1"), parent.ID))
	require.NoError(t, tree.Insert(mustNew(t, bob, "r2"), parent.ID))
	require.Equal(t, 4, tree.Len())

	removed, err := tree.Delete(parent.ID, alice.ID, reviewAuthor)
	require.NoError(t, err)
	assert.Equal(t, 3, removed, "cascade counts the parent plus every reply")
	assert.Equal(t, 1, tree.Len())

	_, ok := tree.Find(parent.ID)
	assert.False(t, ok)
	_, ok = tree.Find(sibling.ID)
	assert.True(t, ok)
}

func TestDeleteReplyLeavesSiblings(t *testing.T) {
	var tree Tree
	parent := mustNew(t, alice, "parent")
	require.NoError(t, tree.Insert(parent, ""))
	r1 := mustNew(t, bob, "r1")
	r2 := mustNew(t, carol, "r2")
	require.NoError(t, tree.Insert(r1, parent.ID))
	require.NoError(t, tree.Insert(r2, parent.ID))

	removed, err := tree.Delete(r1.ID, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := tree.Find(parent.ID)
	assert.True(t, ok)
	_, ok = tree.Find(r2.ID)
	assert.True(t, ok)
	_, ok = tree.Find(r1.ID)
	assert.False(t, ok)
}

func TestDeleteByReviewAuthor(t *testing.T) {
	const reviewAuthor = int64(42)

	var tree Tree
	c := mustNew(t, alice, "comment by alice")
	require.NoError(t, tree.Insert(c, ""))
	require.NoError(t, tree.Insert(mustNew(t, alice, "reply"), c.ID))

	// moderation right: the review's author may delete anyone's comment
	removed, err := tree.Delete(c.ID, reviewAuthor, reviewAuthor)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, tree.Len())
}

func TestDeleteByThirdParty(t *testing.T) {
	var tree Tree
	c := mustNew(t, alice, "comment")
	require.NoError(t, tree.Insert(c, ""))

	_, err := tree.Delete(c.ID, carol.ID, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, tree.Len())
}

func TestDeleteMissing(t *testing.T) {
	var tree Tree
	_, err := tree.Delete("nope", alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	var tree Tree
	c := mustNew(t, alice, "likeable")
	require.NoError(t, tree.Insert(c, ""))

	liked, err := tree.ToggleLike(c.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	node, _ := tree.Find(c.ID)
	assert.Equal(t, []int64{bob.ID}, node.Likes)

	liked, err = tree.ToggleLike(c.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	node, _ = tree.Find(c.ID)
	assert.Empty(t, node.Likes)

	_, err = tree.ToggleLike("missing", bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnershipPredicates(t *testing.T) {
	c := Comment{Author: alice}

	assert.True(t, CanEdit(c, alice.ID))
	assert.False(t, CanEdit(c, bob.ID))

	assert.True(t, CanDelete(c, alice.ID, bob.ID), "author deletes own comment")
	assert.True(t, CanDelete(c, bob.ID, bob.ID), "review author moderates")
	assert.False(t, CanDelete(c, carol.ID, bob.ID), "third party has no right")
}

func TestResolveChecksTopLevelFirst(t *testing.T) {
	var tree Tree
	top := mustNew(t, alice, "top")
	other := mustNew(t, bob, "other")
	require.NoError(t, tree.Insert(top, ""))
	require.NoError(t, tree.Insert(other, ""))
	reply := mustNew(t, carol, "reply")
	require.NoError(t, tree.Insert(reply, top.ID))

	loc, ok := tree.resolve(top.ID)
	require.True(t, ok)
	assert.Equal(t, -1, loc.reply)

	loc, ok = tree.resolve(reply.ID)
	require.True(t, ok)
	assert.GreaterOrEqual(t, loc.reply, 0)
}
