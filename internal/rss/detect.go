package rss

// Reason 说明一次比较的结论，用于日志和状态接口。
type Reason int

const (
	// ReasonBaseline 没有历史快照，本次快照作为基线保存，不发通知。
	ReasonBaseline Reason = iota
	// ReasonUnchanged 构建时间没有变大，视为未更新。
	ReasonUnchanged
	// ReasonUpdated 构建时间变大，已筛选新条目。
	ReasonUpdated
)

var reasonNames = [...]string{
	"baseline",
	"unchanged",
	"updated",
}

func (r Reason) String() string {
	if int(r) >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Detection 是一次比较的结果。
type Detection struct {
	New     []Entry // 按源中顺序排列的新条目
	Persist bool    // 调用方处理完后是否需要保存 current
	Reason  Reason
}

// Detect 比较上一次保存的快照和本次抓取的快照。
//
// previous 为 nil 时把 current 当作基线；current.BuiltAt 不严格大于
// previous.BuiltAt 时不做任何事；否则挑出 UpdatedAt 严格大于
// previous.BuiltAt 的条目，顺序与 current.Entries 一致。
// 不做任何 I/O，也不修改输入。
func Detect(previous *Snapshot, current Snapshot) Detection {
	if previous == nil {
		return Detection{Persist: true, Reason: ReasonBaseline}
	}

	since := previous.BuiltAt
	if !current.BuiltAt.After(since) {
		return Detection{Reason: ReasonUnchanged}
	}

	var fresh []Entry
	for _, e := range current.Entries {
		if e.UpdatedAt.After(since) {
			fresh = append(fresh, e)
		}
	}
	return Detection{New: fresh, Persist: true, Reason: ReasonUpdated}
}
