package registry

import (
	"errors"
	"reflect"
	"testing"
)

func enabledOrder(t *testing.T, doc string) ([]string, error) {
	t.Helper()
	reg := NewFromSet(parseSet(t, doc), WithModuleLookup(testLookup(nil, nil)))
	return reg.EnabledDomains()
}

func TestEnabledDomains_DependencyBeforeDependent(t *testing.T) {
	order, err := enabledOrder(t, `
domains:
  dependent:
    enabled: true
    depends_on: [base]
  base:
    enabled: true
`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"base", "dependent"}) {
		t.Errorf("expected [base dependent], got %v", order)
	}
}

func TestEnabledDomains_DiamondAppearsOnce(t *testing.T) {
	order, err := enabledOrder(t, `
domains:
  left:
    enabled: true
    depends_on: [shared]
  right:
    enabled: true
    depends_on: [shared]
  shared:
    enabled: true
`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"shared", "left", "right"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestEnabledDomains_TransitiveChain(t *testing.T) {
	order, err := enabledOrder(t, `
domains:
  c:
    enabled: true
    depends_on: [b]
  b:
    enabled: true
    depends_on: [a]
  a:
    enabled: true
`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", order)
	}
}

func TestEnabledDomains_CycleFails(t *testing.T) {
	_, err := enabledOrder(t, `
domains:
  a:
    enabled: true
    depends_on: [b]
  b:
    enabled: true
    depends_on: [a]
`)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
	if !depErr.Cycle {
		t.Errorf("expected cycle error, got %v", depErr)
	}
}

func TestEnabledDomains_SelfCycleFails(t *testing.T) {
	_, err := enabledOrder(t, `
domains:
  a:
    enabled: true
    depends_on: [a]
`)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
}

func TestEnabledDomains_UnknownDependencyFails(t *testing.T) {
	_, err := enabledOrder(t, `
domains:
  a:
    enabled: true
    depends_on: [ghost]
`)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
	if depErr.Domain != "a" || depErr.Dep != "ghost" {
		t.Errorf("error should name domain and dependency, got %v", depErr)
	}
}

func TestEnabledDomains_DisabledDependencyContributesNothing(t *testing.T) {
	order, err := enabledOrder(t, `
domains:
  a:
    enabled: true
    depends_on: [dormant]
  dormant:
    enabled: false
`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a"}) {
		t.Errorf("disabled dependency must not appear, got %v", order)
	}
}

func TestEnabledDomains_DisabledTopLevelExcluded(t *testing.T) {
	order, err := enabledOrder(t, `
domains:
  on:
    enabled: true
  off:
    enabled: false
`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"on"}) {
		t.Errorf("expected [on], got %v", order)
	}
}

func TestEnabledDomains_Deterministic(t *testing.T) {
	doc := `
domains:
  gamma:
    enabled: true
    depends_on: [alpha]
  alpha:
    enabled: true
  beta:
    enabled: true
    depends_on: [alpha, gamma]
`
	first, err := enabledOrder(t, doc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := enabledOrder(t, doc)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("order not stable: %v vs %v", first, again)
		}
	}
	// Document order drives the result: gamma is requested first, so alpha
	// resolves before it, then beta follows.
	want := []string{"alpha", "gamma", "beta"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("expected %v, got %v", want, first)
	}
}
