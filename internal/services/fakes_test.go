package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/todoapp/apiserver/internal/storage"
	"github.com/todoapp/apiserver/internal/store"
	"github.com/todoapp/apiserver/types"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]types.User
	// createErr, when set, is returned by the next Create.
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]types.User{}}
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username != nil && *user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return types.User{}, err
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	f.users[user.ID] = user
	return user, nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []types.Task
	clock time.Time
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeTasks) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeTasks) ListForOwner(_ context.Context, ownerID string, filter types.TaskFilter, limit, offset int) ([]types.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []types.Task
	for _, task := range f.tasks {
		if task.UserID != ownerID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && task.Priority != *filter.Priority {
			continue
		}
		matched = append(matched, task)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset >= total {
		return []types.Task{}, total, nil
	}
	end := min(offset+limit, total)
	return append([]types.Task{}, matched[offset:end]...), total, nil
}

func (f *fakeTasks) GetForOwner(_ context.Context, ownerID, id string) (types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ID == id && task.UserID == ownerID {
			return task, nil
		}
	}
	return types.Task{}, store.ErrNotFound
}

func (f *fakeTasks) Create(_ context.Context, task types.Task) (types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = uuid.NewString()
	task.CreatedAt = f.tick()
	task.UpdatedAt = nil
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeTasks) Update(_ context.Context, task types.Task) (types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.tasks {
		if existing.ID == task.ID && existing.UserID == task.UserID {
			updatedAt := f.tick()
			task.UpdatedAt = &updatedAt
			f.tasks[i] = task
			return task, nil
		}
	}
	return types.Task{}, store.ErrNotFound
}

func (f *fakeTasks) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, task := range f.tasks {
		if task.ID == id && task.UserID == ownerID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeCategories struct {
	mu         sync.Mutex
	categories []types.Category
}

func (f *fakeCategories) List(context.Context) ([]types.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Category{}, f.categories...), nil
}

func (f *fakeCategories) Get(_ context.Context, id string) (types.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, category := range f.categories {
		if category.ID == id {
			return category, nil
		}
	}
	return types.Category{}, store.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, category types.Category) (types.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	category.ID = uuid.NewString()
	category.CreatedAt = time.Now().UTC()
	f.categories = append(f.categories, category)
	return category, nil
}

type publishedMessage struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, publishedMessage{channel: channel, data: data, attrs: attrs})
	return uuid.NewString(), nil
}

func (f *fakePublisher) sent() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage{}, f.messages...)
}

type fakeObjects struct {
	bucket   string
	objects  map[string][]byte
	types    map[string]string
	metadata map[string]map[string]string
	err      error
	signErr  error
}

func newFakeObjects(bucket string) *fakeObjects {
	return &fakeObjects{
		bucket:   bucket,
		objects:  map[string][]byte{},
		types:    map[string]string{},
		metadata: map[string]map[string]string{},
	}
}

func (f *fakeObjects) Put(_ context.Context, obj storage.Object) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	if int64(len(data)) != obj.Size {
		return errors.New("size mismatch")
	}
	f.objects[obj.Key] = data
	f.types[obj.Key] = obj.ContentType
	f.metadata[obj.Key] = obj.Metadata
	return nil
}

func (f *fakeObjects) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://objects.example.com/" + f.bucket + "/" + key, nil
}

func (f *fakeObjects) Bucket() string {
	return f.bucket
}
