package exporter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"gitvault/pkg/core"
)

// DateLayout 是 log 中 Date 行的格式
const DateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// abbrevLen 是 Merge 行中父提交的缩写长度
const abbrevLen = 7

// WriteLog 按 log / global-log 的格式依次输出提交，每条以 "===" 开头，之后空一行
func WriteLog(w io.Writer, commits []*core.Commit) error {
	for _, c := range commits {
		if err := WriteLogEntry(w, c); err != nil {
			return err
		}
	}
	return nil
}

func WriteLogEntry(w io.Writer, c *core.Commit) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("===\n")
	printf("commit %s\n", c.ID())
	if c.IsMerge() {
		printf("Merge: %s %s\n", c.ParentID().Short(abbrevLen), c.SecondParentID().Short(abbrevLen))
	}
	printf("Date: %s\n", c.Time().In(time.Local).Format(DateLayout))
	printf("%s\n\n", c.Message)
	return err
}

func printCommit(c *core.Commit, w io.Writer) {
	fmt.Fprintf(w, "Type:    Commit\n")
	fmt.Fprintf(w, "Hash:    %s\n", c.ID())
	if !c.IsRoot() {
		fmt.Fprintf(w, "Parent:  %s\n", c.ParentID())
	}
	if c.IsMerge() {
		fmt.Fprintf(w, "Parent:  %s\n", c.SecondParentID())
	}
	fmt.Fprintf(w, "Time:    %s\n", c.Time().Format(time.RFC3339))
	fmt.Fprintf(w, "\n%s\n", c.Message)

	snapshot := c.Snapshot()
	if len(snapshot) == 0 {
		return
	}
	fmt.Fprintf(w, "\n")

	// 使用 tabwriter 对齐输出 (像 git ls-tree)
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, path := range snapshot.Paths() {
		fmt.Fprintf(tw, "blob\t%s\t%s\n", snapshot[path].Short(8), path)
	}
	tw.Flush()
}

func printBlob(b *core.Blob, w io.Writer) {
	fmt.Fprintf(w, "Type: Blob\n")
	fmt.Fprintf(w, "Path: %s\n", b.Path)
	fmt.Fprintf(w, "Size: %s\n\n", fmtSize(b.Size()))

	// 二进制内容不直接打到终端
	if !utf8.Valid(b.Content) {
		fmt.Fprintf(w, "(binary data not shown, use 'gv cat-object --raw ... > file' to save)\n")
		return
	}
	w.Write(b.Content)
}

func fmtSize(s int64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	}
	return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
}
