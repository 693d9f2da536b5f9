package memory

import (
	"sync"

	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
)

// Store keeps every collection behind one lock so cross-collection rules
// (foreign keys, ON DELETE SET NULL) hold the same way they do in Postgres.
type Store struct {
	mu sync.RWMutex

	users      map[string]user.User
	categories map[string]category.Category
	posts      map[string]*postRecord

	commentSeq int64
}

type postRecord struct {
	post       post.Post
	categoryID string
	comments   []post.Comment
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]user.User),
		categories: make(map[string]category.Category),
		posts:      make(map[string]*postRecord),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Categories() *CategoriesRepo {
	return &CategoriesRepo{s: s}
}

func (s *Store) Posts() *PostsRepo {
	return &PostsRepo{s: s}
}
