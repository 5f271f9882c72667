package sbi

import "testing"

type callRecord struct {
	ext, fid, arg0, arg1, arg2 uintptr
}

func mockEcall(t *testing.T, errno int64, value uintptr) *[]callRecord {
	var calls []callRecord

	ecallFn = func(ext, fid, arg0, arg1, arg2 uintptr) (uintptr, uintptr) {
		calls = append(calls, callRecord{ext, fid, arg0, arg1, arg2})
		return uintptr(errno), value
	}
	t.Cleanup(func() { ecallFn = ecall })

	return &calls
}

func TestCall(t *testing.T) {
	calls := mockEcall(t, ErrDenied, 0xbadf00d)

	ret := Call(0x4442434E, 3, 1, 2, 3)
	if ret.Error != ErrDenied || ret.Value != 0xbadf00d {
		t.Fatalf("expected Ret{%d, 0xbadf00d}; got %+v", ErrDenied, ret)
	}

	exp := callRecord{0x4442434E, 3, 1, 2, 3}
	if len(*calls) != 1 || (*calls)[0] != exp {
		t.Fatalf("expected a single call %+v; got %+v", exp, *calls)
	}
}

func TestConsolePutchar(t *testing.T) {
	calls := mockEcall(t, ErrFailed, 0)

	for _, ch := range []byte("x=42\n") {
		ConsolePutchar(ch)
	}

	if got := len(*calls); got != 5 {
		t.Fatalf("expected 5 calls; got %d", got)
	}

	for i, ch := range []byte("x=42\n") {
		exp := callRecord{ext: ExtLegacyConsolePutchar, arg0: uintptr(ch)}
		if got := (*calls)[i]; got != exp {
			t.Errorf("[call %d] expected %+v; got %+v", i, exp, got)
		}
	}
}

func TestSpecVersion(t *testing.T) {
	calls := mockEcall(t, Success, 2<<24|0)

	major, minor := SpecVersion()
	if major != 2 || minor != 0 {
		t.Fatalf("expected spec version 2.0; got %d.%d", major, minor)
	}

	if exp := (callRecord{ext: ExtBase, fid: FuncBaseGetSpecVersion}); (*calls)[0] != exp {
		t.Fatalf("expected call %+v; got %+v", exp, (*calls)[0])
	}
}

func TestShutdown(t *testing.T) {
	specs := []struct {
		failure   bool
		expReason uintptr
	}{
		{false, ResetReasonNone},
		{true, ResetReasonSystemFailure},
	}

	for specIndex, spec := range specs {
		// firmware that ignores both shutdown requests
		calls := mockEcall(t, ErrNotSupported, 0)

		Shutdown(spec.failure)

		exp := []callRecord{
			{ext: ExtSystemReset, fid: FuncSystemReset, arg0: ResetTypeShutdown, arg1: spec.expReason},
			{ext: ExtLegacyShutdown},
		}

		if len(*calls) != len(exp) {
			t.Fatalf("[spec %d] expected %d calls; got %d", specIndex, len(exp), len(*calls))
		}

		for i := range exp {
			if (*calls)[i] != exp[i] {
				t.Errorf("[spec %d] expected call %d to be %+v; got %+v", specIndex, i, exp[i], (*calls)[i])
			}
		}
	}
}
