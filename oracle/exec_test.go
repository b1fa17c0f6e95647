package oracle

import (
	"context"
	"math/big"
	"testing"
)

func TestExecOracleQuery(t *testing.T) {
	o := ExecOracle{
		Path:    "/bin/sh",
		Args:    []string{"-c", "echo c=%c; exit 2"},
		ByteLen: 2,
	}

	var gotStdout string
	cb := func(r ExecResult) bool {
		gotStdout = string(r.Stdout)
		return r.ExitCode != 2
	}

	ok, err := o.Query(context.Background(), big.NewInt(0xabcd), cb)
	if err != nil {
		t.Fatalf("Query: %s", err)
	}
	if ok {
		t.Errorf("callback should have reported non-conforming (exit code 2)")
	}
	if want := "c=abcd\n"; gotStdout != want {
		t.Errorf("stdout = %q, want %q", gotStdout, want)
	}
}

func TestExecOracleMissingCallback(t *testing.T) {
	o := ExecOracle{Path: "/bin/sh", Args: []string{"-c", "true"}, ByteLen: 2}
	if _, err := o.Query(context.Background(), big.NewInt(1), nil); err != ErrMissingCallback {
		t.Errorf("want ErrMissingCallback, got %v", err)
	}
}

func TestExecOracleCiphertextTooWide(t *testing.T) {
	o := ExecOracle{Path: "/bin/sh", Args: []string{"-c", "true"}, ByteLen: 1}
	_, err := o.Query(context.Background(), big.NewInt(0x1234), func(ExecResult) bool { return true })
	if err == nil {
		t.Fatal("want error for ciphertext wider than ByteLen")
	}
}
