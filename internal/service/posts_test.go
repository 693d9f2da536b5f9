package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func pngFile() *upload.File {
	return &upload.File{Name: "cover.png", Size: int64(len(pngBytes)), Reader: bytes.NewReader(pngBytes)}
}

func TestPosts_HelloWorldScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tech := f.category(t, "Tech")
	content := strings.Repeat("x", 500)

	created, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{
		Title:    "Hello World",
		Content:  content,
		Category: tech.ID,
		Tags:     " go, web ,,go",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello-world", created.Slug)
	assert.Equal(t, strings.Repeat("x", 150)+"...", created.Excerpt)
	assert.Equal(t, []string{"go", "web"}, created.Tags)
	assert.False(t, created.IsPublished)
	assert.Equal(t, int64(0), created.ViewCount)
	assert.Equal(t, f.alice.ID, created.Author.ID)
	assert.Equal(t, "Alice", created.Author.Name)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Tech", created.Category.Name)

	got, err := f.posts.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)
}

func TestPosts_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	tests := []struct {
		name string
		req  post.CreateRequest
		kind apperr.Kind
	}{
		{"missing title", post.CreateRequest{Content: "c", Category: tech.ID}, apperr.KindValidation},
		{"blank content", post.CreateRequest{Title: "t", Content: "   ", Category: tech.ID}, apperr.KindValidation},
		{"missing category", post.CreateRequest{Title: "t", Content: "c"}, apperr.KindValidation},
		{"malformed category", post.CreateRequest{Title: "t", Content: "c", Category: "tech"}, apperr.KindValidation},
		{"unknown category", post.CreateRequest{Title: "t", Content: "c", Category: uuid.NewString()}, apperr.KindValidation},
		{"title without letters", post.CreateRequest{Title: "!!!", Content: "c", Category: tech.ID}, apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.CreatePost(ctx, f.alice, tt.req, nil)
			requireKind(t, err, tt.kind)
		})
	}

	_, err := f.posts.CreatePost(ctx, zeroIdentity, post.CreateRequest{Title: "t", Content: "c", Category: tech.ID}, nil)
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestPosts_ExplicitExcerptKept(t *testing.T) {
	f := newFixture(t)
	tech := f.category(t, "Tech")

	p, err := f.posts.CreatePost(context.Background(), f.alice, post.CreateRequest{
		Title: "Short", Content: "tiny", Category: tech.ID, Excerpt: "my summary",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "my summary", p.Excerpt)
}

func TestPosts_SlugCollisionIsConflictAndCleansUpImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	first, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Same Title", Content: "a", Category: tech.ID}, pngFile())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.FeaturedImage, "/uploads/"))
	assert.True(t, strings.HasSuffix(first.FeaturedImage, ".png"))

	_, err = f.posts.CreatePost(ctx, f.bob, post.CreateRequest{Title: "same title!", Content: "b", Category: tech.ID}, pngFile())
	requireKind(t, err, apperr.KindConflict)

	require.Len(t, f.storage.saved, 2)
	require.Len(t, f.storage.deleted, 1)
	assert.NotEqual(t, first.FeaturedImage, f.storage.deleted[0])
}

func TestPosts_NonImageRejectedBeforeStoring(t *testing.T) {
	f := newFixture(t)
	tech := f.category(t, "Tech")

	bad := &upload.File{Name: "notes.txt", Size: 5, Reader: strings.NewReader("hello")}

	_, err := f.posts.CreatePost(context.Background(), f.alice, post.CreateRequest{Title: "T", Content: "c", Category: tech.ID}, bad)
	requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "Only image files are allowed!", apperr.MessageOf(err))
	assert.Empty(t, f.storage.saved)
}

func TestPosts_PaginationOverTwentyFive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	for i := 0; i < 25; i++ {
		_, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{
			Title: fmt.Sprintf("Post %02d", i), Content: "c", Category: tech.ID, IsPublished: true,
		}, nil)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for page, want := range map[int]int{1: 10, 2: 10, 3: 5} {
		res, err := f.posts.ListPublished(ctx, page, 10, "")
		require.NoError(t, err)
		assert.Len(t, res.Posts, want, "page %d", page)
		assert.Equal(t, 3, res.TotalPages)
		assert.Equal(t, page, res.Page)
		for _, p := range res.Posts {
			assert.False(t, seen[p.ID], "post %s returned on two pages", p.ID)
			seen[p.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestPosts_ListOrderAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")
	art := f.category(t, "Art")

	base := time.Now().Add(-time.Hour)
	step := 0
	f.posts.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	for i, cat := range []string{tech.ID, art.ID, tech.ID} {
		_, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{
			Title: fmt.Sprintf("Ordered %d", i), Content: "c", Category: cat, IsPublished: true,
		}, nil)
		require.NoError(t, err)
	}

	res, err := f.posts.ListPublished(ctx, -3, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	require.Len(t, res.Posts, 3)
	assert.Equal(t, "ordered-2", res.Posts[0].Slug)
	assert.Equal(t, "ordered-0", res.Posts[2].Slug)

	onlyTech, err := f.posts.ListPublished(ctx, 1, 10, tech.ID)
	require.NoError(t, err)
	assert.Len(t, onlyTech.Posts, 2)
	assert.Equal(t, 1, onlyTech.TotalPages)

	junk, err := f.posts.ListPublished(ctx, 1, 10, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, junk.Posts)

	page, limit := NormalizePaging(1, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, post.MaxLimit, limit)

	for _, huge := range []int{1 << 62, 4611686018427387905, math.MaxInt} {
		page, limit = NormalizePaging(huge, 100)
		assert.LessOrEqual(t, (page-1)*limit, post.MaxOffset)
		assert.GreaterOrEqual(t, (page-1)*limit, 0)

		far, err := f.posts.ListPublished(ctx, huge, 100, "")
		require.NoError(t, err, "page %d", huge)
		assert.Empty(t, far.Posts, "page %d", huge)
		assert.Equal(t, 3, far.Total)
	}
}

func TestPosts_DraftsHiddenUntilToggled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	draft, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Secret Draft", Content: "hidden words", Category: tech.ID}, nil)
	require.NoError(t, err)

	assertVisible := func(want bool) {
		t.Helper()

		page, err := f.posts.ListPublished(ctx, 1, 10, "")
		require.NoError(t, err)
		found, err := f.posts.SearchPosts(ctx, "hidden")
		require.NoError(t, err)
		feed, err := f.posts.Feed(ctx)
		require.NoError(t, err)

		if want {
			assert.Len(t, page.Posts, 1)
			assert.Len(t, found, 1)
			assert.Len(t, feed, 1)
		} else {
			assert.Empty(t, page.Posts)
			assert.Empty(t, found)
			assert.Empty(t, feed)
		}
	}

	assertVisible(false)

	toggled, err := f.posts.TogglePublish(ctx, f.alice, draft.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublished)
	assertVisible(true)

	toggled, err = f.posts.TogglePublish(ctx, f.alice, draft.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)
	assertVisible(false)

	mine, err := f.posts.ListMine(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.posts.ListMine(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestPosts_NonOwnerLooksLikeMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	p, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Mine", Content: "c", Category: tech.ID}, nil)
	require.NoError(t, err)

	_, byOther := f.posts.TogglePublish(ctx, f.bob, p.ID)
	_, missing := f.posts.TogglePublish(ctx, f.bob, uuid.NewString())
	requireKind(t, byOther, apperr.KindNotFound)
	requireKind(t, missing, apperr.KindNotFound)
	assert.Equal(t, apperr.MessageOf(missing), apperr.MessageOf(byOther))

	_, byOther = f.posts.UpdatePost(ctx, f.bob, p.ID, post.UpdateRequest{Title: strPtr("Hijack")})
	_, missing = f.posts.UpdatePost(ctx, f.bob, uuid.NewString(), post.UpdateRequest{Title: strPtr("Hijack")})
	requireKind(t, byOther, apperr.KindNotFound)
	requireKind(t, missing, apperr.KindNotFound)
	assert.Equal(t, apperr.MessageOf(missing), apperr.MessageOf(byOther))
}

func TestPosts_UpdateKeepsSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")
	art := f.category(t, "Art")

	p, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Original Title", Content: "c", Category: tech.ID}, nil)
	require.NoError(t, err)

	tags := []string{" a ", "b", ""}
	updated, err := f.posts.UpdatePost(ctx, f.alice, p.ID, post.UpdateRequest{
		Title:    strPtr("Brand New Title"),
		Category: strPtr(art.ID),
		Tags:     &tags,
	})
	require.NoError(t, err)

	assert.Equal(t, "Brand New Title", updated.Title)
	assert.Equal(t, "original-title", updated.Slug)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Art", updated.Category.Name)
	assert.Equal(t, "c", updated.Content)

	_, err = f.posts.UpdatePost(ctx, f.alice, p.ID, post.UpdateRequest{Title: strPtr("  ")})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.posts.UpdatePost(ctx, f.alice, p.ID, post.UpdateRequest{Category: strPtr(uuid.NewString())})
	requireKind(t, err, apperr.KindValidation)
}

func TestPosts_ConcurrentViewsAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	p, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Popular", Content: "c", Category: tech.ID, IsPublished: true}, nil)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.posts.GetBySlug(ctx, p.Slug)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.store.Posts().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ViewCount)
}

func TestPosts_ConcurrentCommentsAllLand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	p, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Discuss", Content: "c", Category: tech.ID, IsPublished: true}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, who := range []struct {
		actor   string
		content string
	}{{"alice", "first!"}, {"bob", "second!"}} {
		wg.Add(1)
		go func(actor, content string) {
			defer wg.Done()
			id := f.alice
			if actor == "bob" {
				id = f.bob
			}
			_, err := f.posts.AddComment(ctx, id, p.Slug, content)
			assert.NoError(t, err)
		}(who.actor, who.content)
	}
	wg.Wait()

	got, err := f.posts.GetBySlug(ctx, p.Slug)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, 2, got.CommentCount)

	contents := []string{got.Comments[0].Content, got.Comments[1].Content}
	assert.ElementsMatch(t, []string{"first!", "second!"}, contents)

	names := []string{got.Comments[0].Author.Name, got.Comments[1].Author.Name}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}

func TestPosts_CommentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	p, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Quiet", Content: "c", Category: tech.ID}, nil)
	require.NoError(t, err)

	_, err = f.posts.AddComment(ctx, f.bob, p.Slug, "   ")
	requireKind(t, err, apperr.KindValidation)

	// a missing post wins over an empty comment
	_, err = f.posts.AddComment(ctx, f.bob, "no-such-post", "")
	requireKind(t, err, apperr.KindNotFound)

	_, err = f.posts.AddComment(ctx, zeroIdentity, p.Slug, "hi")
	requireKind(t, err, apperr.KindUnauthenticated)
}

func TestPosts_GetBySlugMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.posts.GetBySlug(context.Background(), "missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestPosts_SearchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	_, err := f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Learning GoLang", Content: "channels", Category: tech.ID, IsPublished: true}, nil)
	require.NoError(t, err)
	_, err = f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Baking", Content: "bread and CHANNELS of flour", Category: tech.ID, IsPublished: true}, nil)
	require.NoError(t, err)

	byTitle, err := f.posts.SearchPosts(ctx, "golang")
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	byContent, err := f.posts.SearchPosts(ctx, "Channels")
	require.NoError(t, err)
	assert.Len(t, byContent, 2)

	all, err := f.posts.SearchPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	trailing, err := f.posts.SearchPosts(ctx, "golang ")
	require.NoError(t, err)
	assert.Empty(t, trailing, "trailing space is part of the needle")

	padded, err := f.posts.SearchPosts(ctx, " golang")
	require.NoError(t, err)
	assert.Len(t, padded, 1)

	glued, err := f.posts.SearchPosts(ctx, " learning")
	require.NoError(t, err)
	assert.Empty(t, glued, "leading space is part of the needle")
}

func TestPosts_ListingCacheSeesNewPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.category(t, "Tech")

	first, err := f.posts.ListPublished(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Total)

	_, err = f.posts.CreatePost(ctx, f.alice, post.CreateRequest{Title: "Fresh", Content: "c", Category: tech.ID, IsPublished: true}, nil)
	require.NoError(t, err)

	second, err := f.posts.ListPublished(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
}

func TestDeriveExcerpt(t *testing.T) {
	assert.Equal(t, "short...", DeriveExcerpt("short"))
	assert.Equal(t, strings.Repeat("é", 150)+"...", DeriveExcerpt(strings.Repeat("é", 200)))
}
