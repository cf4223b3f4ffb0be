package exporter

import (
	"context"
	"fmt"
	"io"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

type Exporter struct {
	store storage.Store
}

func NewExporter(store storage.Store) *Exporter {
	return &Exporter{store: store}
}

// load 展开前缀并读出原始字节
func (e *Exporter) load(ctx context.Context, prefix types.HashPrefix) (core.Object, error) {
	hash, err := e.store.ExpandHash(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid object id '%s': %w", prefix, err)
	}
	data, err := storage.ReadAll(ctx, e.store, hash)
	if err != nil {
		return nil, err
	}
	return core.Decode(data)
}

// ExportBlob 把 blob 的文件内容原样写入 writer，可以重定向到文件
func (e *Exporter) ExportBlob(ctx context.Context, prefix types.HashPrefix, writer io.Writer) error {
	obj, err := e.load(ctx, prefix)
	if err != nil {
		return err
	}

	// 类型防御
	blob, ok := obj.(*core.Blob)
	if !ok {
		return fmt.Errorf("object is not a blob, got: %s", obj.Type())
	}
	_, err = writer.Write(blob.Content)
	return err
}

// PrintObject 打印对象的结构化信息 (cat-object)
func (e *Exporter) PrintObject(ctx context.Context, prefix types.HashPrefix, writer io.Writer) error {
	obj, err := e.load(ctx, prefix)
	if err != nil {
		return err
	}

	switch o := obj.(type) {
	case *core.Commit:
		printCommit(o, writer)
	case *core.Blob:
		printBlob(o, writer)
	default:
		return fmt.Errorf("unknown object type: %s", obj.Type())
	}
	return nil
}
