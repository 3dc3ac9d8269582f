package file

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWrite(t *testing.T) {
	tester := func(in string) error {
		err := Write(in, []byte("tallerd"))
		if err != nil {
			return err
		}
		return os.Remove(in)
	}

	type testTable struct {
		InFile      string
		ErrExpected bool
	}

	var tests []testTable
	tempDir := filepath.Join(os.TempDir(), "tallerd-temp")
	testFile := filepath.Join(tempDir, "tallertest.txt")
	switch runtime.GOOS {
	case "windows":
		tests = []testTable{
			{InFile: "*", ErrExpected: true},
			{InFile: testFile, ErrExpected: false},
		}
	default:
		tests = []testTable{
			{InFile: "", ErrExpected: true},
			{InFile: testFile, ErrExpected: false},
		}
	}

	for x := range tests {
		err := tester(tests[x].InFile)
		if err != nil && !tests[x].ErrExpected {
			t.Errorf("Test %d failed, unexpected err %s\n", x, err)
		}
	}

	if err := os.RemoveAll(tempDir); err != nil {
		t.Errorf("unable to remove temp test dir %s, manual deletion required", tempDir)
	}
}

func TestMove(t *testing.T) {
	tester := func(in, out string, write bool) error {
		if write {
			if err := os.WriteFile(in, []byte("tallerd"), 0o770); err != nil {
				return err
			}
		}

		if err := Move(in, out); err != nil {
			return err
		}

		contents, err := os.ReadFile(out)
		if err != nil {
			return err
		}

		if !strings.Contains(string(contents), "tallerd") {
			return fmt.Errorf("unable to find previously written data")
		}

		return os.Remove(out)
	}

	type testTable struct {
		InFile      string
		OutFile     string
		Write       bool
		ErrExpected bool
	}

	var tests []testTable
	switch runtime.GOOS {
	case "windows":
		tests = []testTable{
			{InFile: "*", OutFile: "taller.txt", Write: true, ErrExpected: true},
			{InFile: "*", OutFile: "taller.txt", Write: false, ErrExpected: true},
			{InFile: "in.txt", OutFile: "*", Write: true, ErrExpected: true},
		}
	default:
		tests = []testTable{
			{InFile: "", OutFile: "taller.txt", Write: true, ErrExpected: true},
			{InFile: "", OutFile: "taller.txt", Write: false, ErrExpected: true},
			{InFile: "in.txt", OutFile: "", Write: true, ErrExpected: true},
		}
	}
	tests = append(tests, []testTable{
		{InFile: "in.txt", OutFile: "taller.txt", Write: true, ErrExpected: false},
		{InFile: "in.txt", OutFile: "non-existing/taller.txt", Write: true, ErrExpected: false},
		{InFile: "in.txt", OutFile: "in.txt", Write: true, ErrExpected: false},
	}...)

	if Exists("non-existing") {
		t.Error("target 'non-existing' should not exist")
	}
	defer os.RemoveAll("non-existing")
	defer os.Remove("in.txt")

	for x := range tests {
		err := tester(tests[x].InFile, tests[x].OutFile, tests[x].Write)
		if err != nil && !tests[x].ErrExpected {
			t.Errorf("Test %d failed, unexpected err %s\n", x, err)
		}
	}
}

func TestExists(t *testing.T) {
	if e := Exists("non-existent"); e {
		t.Error("non-existent file should not exist")
	}
	tmpFile := filepath.Join(os.TempDir(), "taller-test.txt")
	if err := os.WriteFile(tmpFile, []byte("hello world"), 0o660); err != nil {
		t.Fatal(err)
	}
	if e := Exists(tmpFile); !e {
		t.Error("file should exist")
	}
	if err := os.Remove(tmpFile); err != nil {
		t.Errorf("unable to remove %s, manual deletion is required", tmpFile)
	}
}

func TestWriter(t *testing.T) {
	tmp := t.TempDir()

	testData := `data`

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "empty", file: "", wantErr: true},
		{name: "relative newfile", file: "newfile"},
		{name: "deep file", file: filepath.Join(tmp, "new", "file", "multiple", "sub", "paths")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Writer(tt.file)
			if err != nil {
				if !tt.wantErr {
					t.Errorf("Writer() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			defer os.Remove(got.Name())
			fileInfo, err := os.Stat(got.Name())
			if err != nil {
				t.Fatal(err)
			}
			if !fileInfo.Mode().IsRegular() {
				t.Fatalf("Writer() error = expected to get a file %s", got.Name())
			}
			if _, err = got.WriteString(testData); err != nil {
				t.Fatal(err)
			}
			if err = got.Close(); err != nil {
				t.Fatal(err)
			}
			if data, err := os.ReadFile(got.Name()); err != nil || string(data) != testData {
				t.Errorf("Could not write the file, or contents were wrong: expected = %s, got =%s", testData, string(data))
			}
		})
	}
}
