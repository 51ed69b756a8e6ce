// +build darwin dragonfly freebsd netbsd openbsd

package watch

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestTranslateNoteMaskDelete(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_DELETE)
	if !flags.Has(FlagRemoved) {
		t.Fatalf("expected Removed flag, got %s", flags)
	}
}

func TestTranslateNoteMaskWriteSuppressedByDelete(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_DELETE | unix.NOTE_WRITE)
	if !flags.Has(FlagRemoved) {
		t.Fatalf("expected Removed flag, got %s", flags)
	}
	if flags.Has(FlagUpdated) {
		t.Fatal("expected Updated flag to be suppressed alongside Removed")
	}
}

func TestTranslateNoteMaskRename(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_RENAME)
	if !flags.Has(FlagRenamed) {
		t.Fatalf("expected Renamed flag, got %s", flags)
	}
}

func TestTranslateNoteMaskAttribute(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_ATTRIB)
	if !flags.Has(FlagAttributeModified) {
		t.Fatalf("expected AttributeModified flag, got %s", flags)
	}
}

func TestTranslateNoteMaskLink(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_LINK)
	if !flags.Has(FlagLink) {
		t.Fatalf("expected Link flag, got %s", flags)
	}
}

func TestTranslateNoteMaskRevokeTreatedAsRemoval(t *testing.T) {
	flags := translateNoteMask(unix.NOTE_REVOKE)
	if !flags.Has(FlagRemoved) {
		t.Fatalf("expected Removed flag for revoke, got %s", flags)
	}
}

func TestTranslateNoteMaskZeroMaskEmpty(t *testing.T) {
	flags := translateNoteMask(0)
	if !flags.Empty() {
		t.Fatalf("expected empty flag set for a zero mask, got %s", flags)
	}
}

// TestKqueueTranslateRenameQueuesParentRescan exercises the table-maintenance
// policy directly: a NOTE_RENAME kevent against a watched directory queues
// that directory's descriptor into to_remove and its parent's descriptor into
// to_rescan, so that a replacement created at the same name is discovered on
// the next cycle.
func TestKqueueTranslateRenameQueuesParentRescan(t *testing.T) {
	parent := t.TempDir()
	child := parent + "/renamed"

	monitor, err := NewKqueueMonitor(Options{
		Paths:   []string{parent},
		Latency: MinSpinLatency,
	}, func([]Event) error { return nil }, nil)
	if err != nil {
		t.Fatal("failed to construct kqueue monitor:", err)
	}
	if err := monitor.compileFilters(); err != nil {
		t.Fatal("failed to compile filters:", err)
	}

	const parentFd = 10
	const childFd = 11
	monitor.descriptorsByPath[parent] = parentFd
	monitor.pathsByDescriptor[parentFd] = descriptorEntry{path: parent, descriptor: parentFd, isDirectory: true}
	monitor.descriptorsByPath[child] = childFd
	monitor.pathsByDescriptor[childFd] = descriptorEntry{path: child, descriptor: childFd, isDirectory: true}

	kevent := unix.Kevent_t{Ident: uint64(childFd), Fflags: unix.NOTE_RENAME}
	batch := monitor.translate([]unix.Kevent_t{kevent})

	if len(batch) != 1 || batch[0].Path != child || !batch[0].Flags.Has(FlagRenamed) {
		t.Fatalf("expected a single Renamed event for %s, got %+v", child, batch)
	}
	if _, queued := monitor.toRemove[childFd]; !queued {
		t.Fatalf("expected renamed descriptor %d to be queued in toRemove, got %v", childFd, monitor.toRemove)
	}
	if _, queued := monitor.toRescan[parentFd]; !queued {
		t.Fatalf("expected parent descriptor %d to be queued in toRescan, got %v", parentFd, monitor.toRescan)
	}
}

// TestKqueueAddWatchIdempotent exercises the idempotence-of-add-watch law: a
// second addWatch call against an already-watched path returns the same
// descriptor rather than opening a new one.
func TestKqueueAddWatchIdempotent(t *testing.T) {
	dir := t.TempDir()

	monitor, err := NewKqueueMonitor(Options{
		Paths:   []string{dir},
		Latency: MinSpinLatency,
	}, func([]Event) error { return nil }, nil)
	if err != nil {
		t.Fatal("failed to construct kqueue monitor:", err)
	}
	if err := monitor.compileFilters(); err != nil {
		t.Fatal("failed to compile filters:", err)
	}

	kq, closepipe, err := newKqueueHandle()
	if err != nil {
		t.Skipf("kqueue unavailable in this environment: %v", err)
	}
	monitor.kq = kq
	monitor.closepipe = closepipe
	defer func() {
		unix.Close(monitor.kq)
		unix.Close(monitor.closepipe[0])
		unix.Close(monitor.closepipe[1])
	}()

	info, err := os.Lstat(dir)
	if err != nil {
		t.Fatal("failed to stat temp directory:", err)
	}

	first, err := monitor.addWatch(dir, info)
	if err != nil {
		t.Fatal("first addWatch failed:", err)
	}
	second, err := monitor.addWatch(dir, info)
	if err != nil {
		t.Fatal("second addWatch failed:", err)
	}

	if first.descriptor != second.descriptor {
		t.Fatalf("expected idempotent addWatch to return the same descriptor, got %d and %d", first.descriptor, second.descriptor)
	}
	if len(monitor.pathsByDescriptor) != 1 {
		t.Fatalf("expected exactly one descriptor table entry, got %d", len(monitor.pathsByDescriptor))
	}
}
