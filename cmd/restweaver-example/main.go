package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"

	"github.com/drblury/restweaver"
	"github.com/drblury/restweaver/cli"
	"github.com/drblury/restweaver/contract"
	"github.com/drblury/restweaver/schema"
)

type Todo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type CreateTodo struct {
	Name string `json:"name"`
}

type UpdateTodo struct {
	Name      *string `json:"name,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type ListQuery struct {
	Completed string `json:"completed,omitempty"`
}

type Message struct {
	Message string `json:"message"`
}

type todoStore struct {
	mu     sync.RWMutex
	nextID int
	todos  map[string]Todo
}

func newTodoStore() *todoStore {
	return &todoStore{todos: make(map[string]Todo)}
}

func (s *todoStore) list(completed string) []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if completed != "" && strconv.FormatBool(t.Completed) != completed {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *todoStore) create(name string) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := Todo{ID: strconv.Itoa(s.nextID), Name: name}
	s.todos[t.ID] = t
	return t
}

func (s *todoStore) update(id string, u UpdateTodo) (Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return Todo{}, false
	}
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	s.todos[id] = t
	return t, true
}

func (s *todoStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.todos[id]
	delete(s.todos, id)
	return ok
}

func notFound(id string) *contract.Response {
	return contract.JSON(http.StatusNotFound, Message{Message: fmt.Sprintf("Todo %s not found.", id)})
}

func newFramework(opts ...restweaver.Option) (*restweaver.Framework, error) {
	store := newTodoStore()
	fw := restweaver.New(append([]restweaver.Option{restweaver.WithVersion("1.0.0")}, opts...)...)

	todoSchema := schema.MustFor[Todo]()
	notFoundOutput := contract.OutputSpec{
		Status:      http.StatusNotFound,
		ContentType: "application/json",
		Schema:      schema.MustFor[Message](),
		Description: "Todo not found",
	}

	if _, err := fw.Route("/todos",
		contract.MethodContract{
			Method:  contract.GET,
			Summary: "List todos",
			Tags:    []string{"todos"},
			Input:   &contract.InputSpec{Query: schema.MustFor[ListQuery]()},
			Output: []contract.OutputSpec{{
				Status:      http.StatusOK,
				ContentType: "application/json",
				Schema:      schema.MustFor[[]Todo](),
			}},
			Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
				query, _ := in.Query.(map[string]any)
				completed, _ := query["completed"].(string)
				return contract.Value(store.list(completed)), nil
			},
		},
		contract.MethodContract{
			Method:  contract.POST,
			Summary: "Create a todo",
			Tags:    []string{"todos"},
			Input: &contract.InputSpec{
				ContentType: "application/json",
				Body:        schema.MustFor[CreateTodo](),
			},
			Output: []contract.OutputSpec{{
				Status:      http.StatusCreated,
				ContentType: "application/json",
				Schema:      todoSchema,
			}},
			Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
				body, _ := in.Body.(map[string]any)
				name, _ := body["name"].(string)
				return contract.Created(store.create(name)), nil
			},
		},
	); err != nil {
		return nil, err
	}

	if _, err := fw.Route("/todos/{id}",
		contract.MethodContract{
			Method:  contract.PATCH,
			Summary: "Update a todo",
			Tags:    []string{"todos"},
			Input: &contract.InputSpec{
				ContentType: "application/json",
				Body:        schema.MustFor[UpdateTodo](),
			},
			Output: []contract.OutputSpec{
				{Status: http.StatusOK, ContentType: "application/json", Schema: todoSchema},
				notFoundOutput,
			},
			Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
				id := in.Request.Raw.PathValue("id")
				var u UpdateTodo
				if body, ok := in.Body.(map[string]any); ok {
					if name, ok := body["name"].(string); ok {
						u.Name = &name
					}
					if completed, ok := body["completed"].(bool); ok {
						u.Completed = &completed
					}
				}
				t, ok := store.update(id, u)
				if !ok {
					return notFound(id), nil
				}
				return contract.Value(t), nil
			},
		},
		contract.MethodContract{
			Method:  contract.DELETE,
			Summary: "Delete a todo",
			Tags:    []string{"todos"},
			Output: []contract.OutputSpec{
				{Status: http.StatusNoContent},
				notFoundOutput,
			},
			Handler: func(_ context.Context, in *contract.Input) (contract.Result, error) {
				id := in.Request.Raw.PathValue("id")
				if !store.delete(id) {
					return notFound(id), nil
				}
				return contract.NoContent(), nil
			},
		},
	); err != nil {
		return nil, err
	}
	return fw, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, "restweaver-example", newFramework); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			stop()
			os.Exit(2)
		}
		slog.Error("restweaver-example failed", "err", err)
		stop()
		os.Exit(1)
	}
}
