package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/util"
)

func TestWorkerPool_Basic(t *testing.T) {
	logger := util.NewLogger(util.DefaultLoggerConfig())
	parserMgr := parser.NewParserManager(logger)
	defer parserMgr.Close()

	queryMgr := queries.NewQueryManager(parserMgr, logger)
	defer queryMgr.Close()

	ext := extractor.NewExtractor(parserMgr, queryMgr, logger)

	pool := NewWorkerPool(4, "ws_test_00000000", ext, logger)
	pool.Start()
	defer pool.Stop()

	testFiles := []string{"test1.ts", "test2.ts", "test3.ts"}

	// These files don't exist on disk, so every job should fail during the
	// os.ReadFile step — this exercises the worker pool's error path.
	for i, file := range testFiles {
		err := pool.Submit(FileJob{FilePath: file, JobID: i})
		assert.NoError(t, err)
	}

	errorCount := 0
	for i := 0; i < len(testFiles); i++ {
		select {
		case <-pool.Results():
			t.Fatal("shouldn't get results for non-existent files")
		case <-pool.Errors():
			errorCount++
		}
	}

	assert.Equal(t, len(testFiles), errorCount)
	stats := pool.GetStats()
	assert.Equal(t, int64(3), stats.JobsSubmitted)
	assert.Equal(t, int64(3), stats.JobsFailed)
}
