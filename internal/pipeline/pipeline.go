// Package pipeline chains declarative DataFrame operators. A DataPipeline
// holds the head of a linked list of Processors and pushes a frame through
// each of them in order.
package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Processor is one operator in a chain.
type Processor interface {
	Process(df dataframe.DataFrame) (dataframe.DataFrame, error)
	With(Processor) Processor
	Next() Processor
}

// BaseProcessor carries the link to the next processor.
type BaseProcessor struct {
	next Processor
}

func (bp *BaseProcessor) With(next Processor) Processor {
	bp.next = next
	return next
}

func (bp *BaseProcessor) Next() Processor {
	return bp.next
}

// DataPipeline connects processors and applies them to a frame
type DataPipeline struct {
	name       string
	processors Processor
}

// New starts an empty pipeline. An empty pipeline returns its input unchanged.
func New(name string) *DataPipeline {
	return &DataPipeline{name: name}
}

func (dp *DataPipeline) Name() string {
	return dp.name
}

// With chains p after the last processor.
func (dp *DataPipeline) With(p Processor) *DataPipeline {
	if dp.processors == nil {
		dp.processors = p
	} else {
		// Find the last processor in the chain
		last := dp.processors
		for last.Next() != nil {
			last = last.Next()
		}
		last.With(p)
	}
	return dp
}

// Len is the number of chained processors.
func (dp *DataPipeline) Len() int {
	n := 0
	for proc := dp.processors; proc != nil; proc = proc.Next() {
		n++
	}
	return n
}

// Apply runs df through every processor. The input frame is not modified.
func (dp *DataPipeline) Apply(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	current := df.Copy()
	for proc := dp.processors; proc != nil; proc = proc.Next() {
		next, err := proc.Process(current)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("%s: %w", dp.name, err)
		}
		if next.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("%s: %T: %w", dp.name, proc, next.Err)
		}
		current = next
	}
	return current, nil
}

func columnIndex(df dataframe.DataFrame, name string) int {
	for i, n := range df.Names() {
		if n == name {
			return i
		}
	}
	return -1
}

func requireColumns(p Processor, df dataframe.DataFrame, names ...string) error {
	for _, name := range names {
		if columnIndex(df, name) < 0 {
			return fmt.Errorf("%T Error: column %q not found in %v", p, name, df.Names())
		}
	}
	return nil
}
