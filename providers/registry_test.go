package providers

import (
	"errors"
	"strings"
	"testing"

	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/intercept"
)

func TestRegister(t *testing.T) {
	Register(intercept.NewOwner("test-owner"))
	t.Cleanup(func() { Unregister("test-owner") })

	if !IsRegistered("test-owner") {
		t.Error("expected test-owner to be registered")
	}
	if IsRegistered("nonexistent") {
		t.Error("expected nonexistent to not be registered")
	}
}

func TestRegisterNilIgnored(t *testing.T) {
	before := len(List())
	Register(nil)
	if len(List()) != before {
		t.Error("registering nil should not change the registry")
	}
}

func TestGet(t *testing.T) {
	owner := intercept.NewOwner("get-test")
	Register(owner)
	t.Cleanup(func() { Unregister("get-test") })

	if Get("get-test") != owner {
		t.Error("Get() should return the registered owner")
	}
	if Get("nonexistent") != nil {
		t.Error("expected nil for nonexistent owner")
	}
}

func TestResolve(t *testing.T) {
	owner := intercept.NewOwner("resolve-test")
	Register(owner)
	t.Cleanup(func() { Unregister("resolve-test") })

	got, err := Resolve("resolve-test")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != owner {
		t.Error("Resolve() returned a different owner")
	}

	_, err = Resolve("missing.owner")
	if !errors.Is(err, core.ErrOwnerNotFound) {
		t.Errorf("Resolve() error = %v, want ErrOwnerNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing.owner") {
		t.Errorf("error should name the owner: %v", err)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	first := intercept.NewOwner("dup")
	second := intercept.NewOwner("dup")
	Register(first)
	Register(second)
	t.Cleanup(func() { Unregister("dup") })

	if Get("dup") != second {
		t.Error("second registration should win")
	}
}

func TestList(t *testing.T) {
	for _, name := range []string{"list-a", "list-b", "list-c"} {
		Register(intercept.NewOwner(name))
		t.Cleanup(func() { Unregister(name) })
	}

	list := List()

	found := make(map[string]bool)
	for _, name := range list {
		found[name] = true
	}
	for _, name := range []string{"list-a", "list-b", "list-c"} {
		if !found[name] {
			t.Errorf("expected %q to be in list", name)
		}
	}

	for i := 1; i < len(list); i++ {
		if list[i-1] > list[i] {
			t.Errorf("list not sorted: %q > %q", list[i-1], list[i])
		}
	}
}

func TestWatch(t *testing.T) {
	var seen []string
	stop := Watch(func(o *intercept.Owner) { seen = append(seen, o.Name()) })

	Register(intercept.NewOwner("watch-a"))
	t.Cleanup(func() { Unregister("watch-a") })
	stop()
	Register(intercept.NewOwner("watch-b"))
	t.Cleanup(func() { Unregister("watch-b") })

	if len(seen) != 1 || seen[0] != "watch-a" {
		t.Errorf("seen = %v, want [watch-a]", seen)
	}
}

func TestWatchSeesRegisteredOwner(t *testing.T) {
	var found bool
	stop := Watch(func(o *intercept.Owner) { found = IsRegistered(o.Name()) })
	defer stop()

	Register(intercept.NewOwner("watch-c"))
	t.Cleanup(func() { Unregister("watch-c") })
	if !found {
		t.Error("watcher ran before the owner was registered")
	}
}
