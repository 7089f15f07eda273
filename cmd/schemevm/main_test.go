package main

import (
	"errors"
	"testing"

	"schemevm/types"
	"schemevm/vm"
)

func TestExitCodeForExitCondition(t *testing.T) {
	err := &vm.Condition{Value: &types.Condition{Kind: types.CondExit, Payload: types.SmallInt(5)}}
	if code := exitCodeFor(err); code != 5 {
		t.Fatalf("exitCodeFor(exit 5) = %d, want 5", code)
	}
}

func TestExitCodeForOrdinaryConditionIsOne(t *testing.T) {
	err := &vm.Condition{Value: &types.Condition{Kind: types.CondBadCallable, Message: "boom"}}
	if code := exitCodeFor(err); code != 1 {
		t.Fatalf("exitCodeFor(non-exit condition) = %d, want 1", code)
	}
}

func TestExitCodeForNonConditionErrorIsOne(t *testing.T) {
	if code := exitCodeFor(errors.New("io error")); code != 1 {
		t.Fatalf("exitCodeFor(plain error) = %d, want 1", code)
	}
}
