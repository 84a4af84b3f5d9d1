package rss

import (
	"reflect"
	"testing"
	"time"
)

var (
	t0   = time.Date(2026, 2, 19, 6, 0, 0, 0, time.UTC)
	t1   = time.Date(2026, 2, 19, 7, 0, 0, 0, time.UTC)
	tMid = time.Date(2026, 2, 19, 7, 30, 0, 0, time.UTC)
	t2   = time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)
)

func sampleSnapshot(builtAt time.Time, times ...time.Time) Snapshot {
	snap := Snapshot{Title: "Novel Updates", BuiltAt: builtAt}
	for i, ts := range times {
		snap.Entries = append(snap.Entries, Entry{
			Title:     "第 " + string(rune('1'+i)) + " 章",
			Link:      "https://example.com/chapter/" + string(rune('1'+i)),
			UpdatedAt: ts,
		})
	}
	return snap
}

func TestDetectBaseline(t *testing.T) {
	current := sampleSnapshot(t1, t0, t1, t1)

	d := Detect(nil, current)
	if len(d.New) != 0 {
		t.Fatalf("首次运行不应有新条目，得到 %d 条", len(d.New))
	}
	if !d.Persist {
		t.Fatal("首次运行应保存基线")
	}
	if d.Reason != ReasonBaseline {
		t.Errorf("Reason 应为 baseline，实际 %s", d.Reason)
	}
}

func TestDetectUnchanged(t *testing.T) {
	previous := sampleSnapshot(t1, t0)

	for _, builtAt := range []time.Time{t1, t0} {
		current := sampleSnapshot(builtAt, t0, t2)
		d := Detect(&previous, current)
		if len(d.New) != 0 {
			t.Errorf("builtAt=%v 时不应有新条目，得到 %d 条", builtAt, len(d.New))
		}
		if d.Persist {
			t.Errorf("builtAt=%v 时不应重写存储", builtAt)
		}
		if d.Reason != ReasonUnchanged {
			t.Errorf("Reason 应为 unchanged，实际 %s", d.Reason)
		}
	}
}

func TestDetectPartialNewEntries(t *testing.T) {
	previous := sampleSnapshot(t1, t0)
	current := sampleSnapshot(t2, t0, tMid, t2)

	d := Detect(&previous, current)
	if !d.Persist || d.Reason != ReasonUpdated {
		t.Fatalf("应保存新快照: %+v", d)
	}
	if len(d.New) != 2 {
		t.Fatalf("期望 2 条新条目，得到 %d 条", len(d.New))
	}
	if !d.New[0].UpdatedAt.Equal(tMid) || !d.New[1].UpdatedAt.Equal(t2) {
		t.Errorf("新条目顺序不对: %+v", d.New)
	}
}

func TestDetectBoundaryIsExclusive(t *testing.T) {
	previous := sampleSnapshot(t1)
	current := sampleSnapshot(t2, t1)

	d := Detect(&previous, current)
	if len(d.New) != 0 {
		t.Fatalf("UpdatedAt 等于上次构建时间的条目不算新条目: %+v", d.New)
	}
	if !d.Persist {
		t.Fatal("构建时间变大时即使没有新条目也应保存")
	}
}

func TestDetectKeepsFeedOrder(t *testing.T) {
	previous := sampleSnapshot(t0)
	// 源中顺序不按时间排列
	current := sampleSnapshot(t2, tMid, t2, t1)

	d := Detect(&previous, current)
	want := []time.Time{tMid, t2, t1}
	if len(d.New) != len(want) {
		t.Fatalf("期望 %d 条，得到 %d 条", len(want), len(d.New))
	}
	for i, ts := range want {
		if !d.New[i].UpdatedAt.Equal(ts) {
			t.Errorf("第 %d 条时间 %v，期望 %v", i, d.New[i].UpdatedAt, ts)
		}
	}
}

func TestDetectIgnoresEntriesWithoutTime(t *testing.T) {
	previous := sampleSnapshot(t0)
	current := sampleSnapshot(t2, time.Time{}, t2)

	d := Detect(&previous, current)
	if len(d.New) != 1 || !d.New[0].UpdatedAt.Equal(t2) {
		t.Fatalf("没有时间的条目不应算作新条目: %+v", d.New)
	}
}

func TestDetectEmptyFeed(t *testing.T) {
	previous := sampleSnapshot(t0, t0)
	current := sampleSnapshot(t2)

	d := Detect(&previous, current)
	if len(d.New) != 0 || !d.Persist {
		t.Fatalf("空订阅源更新后应无新条目但需保存: %+v", d)
	}
}

func TestDetectIdempotent(t *testing.T) {
	previous := sampleSnapshot(t1, t0)
	current := sampleSnapshot(t2, t0, tMid, t2)
	prevCopy := sampleSnapshot(t1, t0)
	curCopy := sampleSnapshot(t2, t0, tMid, t2)

	first := Detect(&previous, current)
	second := Detect(&previous, current)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("两次结果不一致:\n%+v\n%+v", first, second)
	}
	if !previous.Equal(prevCopy) || !current.Equal(curCopy) {
		t.Fatal("Detect 不应修改输入")
	}

	// 修改返回值不影响输入
	first.New[0].Title = "changed"
	if current.Entries[1].Title == "changed" {
		t.Fatal("返回的切片不应与输入共享底层数组")
	}
}

func TestReasonString(t *testing.T) {
	tests := []struct {
		r    Reason
		want string
	}{
		{ReasonBaseline, "baseline"},
		{ReasonUnchanged, "unchanged"},
		{ReasonUpdated, "updated"},
		{Reason(42), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.r.String(); got != tc.want {
			t.Errorf("Reason(%d).String() = %q, 期望 %q", tc.r, got, tc.want)
		}
	}
}
