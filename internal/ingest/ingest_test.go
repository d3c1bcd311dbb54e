package ingest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBirthDate(t *testing.T) {
	v, err := parseBirthDate("1990-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), v)

	v, err = parseBirthDate("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseBirthDate("15/06/1990")
	assert.Error(t, err)
}

func newImportMock(t *testing.T) (sqlmock.Sqlmock, func(csv string) (int, error)) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func(csv string) (int, error) {
		return ImportCSV(db, strings.NewReader(csv))
	}
}

func TestImportCSVHeaderAndUpsert(t *testing.T) {
	mock, run := newImportMock(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(upsertVoterSQL)
	mock.ExpectExec(upsertVoterSQL).
		WithArgs("v1", "Ana Souza", "Rua A 10", "Centro", "Recife", "PE", "50000-000",
			time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), "81999990000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertVoterSQL).
		WithArgs("v2", "Bruno Lima", "", "", "Olinda", "PE", "", nil, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := run(
		"id,full_name,street,neighborhood,city,state,postal_code,birth_date,phone\n" +
			"v1,Ana Souza,Rua A 10,Centro,Recife,PE,50000-000,1990-06-15,81999990000\n" +
			"v2,Bruno Lima,,,Olinda,PE,,,\n")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 坏行只跳过不中断：列数不符、id/姓名为空、生日格式非法的行都不应产生写库调用
func TestImportCSVSkipsBadRows(t *testing.T) {
	mock, run := newImportMock(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(upsertVoterSQL)
	mock.ExpectExec(upsertVoterSQL).
		WithArgs("v1", "Ana Souza", "", "", "Recife", "PE", "", nil, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := run(
		"v1,Ana Souza,,,Recife,PE,,,\n" +
			"short,row\n" +
			",Sem Id,,,Recife,PE,,,\n" +
			"v2,Bruno Lima,,,Recife,PE,,15/06/1990,\n")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 批次边界：第 5000 行提交并重开事务，剩余行落在新批次
func TestImportCSVBatchBoundary(t *testing.T) {
	mock, run := newImportMock(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(upsertVoterSQL)
	for i := 0; i < 5000; i++ {
		mock.ExpectExec(upsertVoterSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectPrepare(upsertVoterSQL)
	mock.ExpectExec(upsertVoterSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var b strings.Builder
	for i := 0; i < 5001; i++ {
		fmt.Fprintf(&b, "v%d,Pessoa %d,,,Recife,PE,,,\n", i, i)
	}
	count, err := run(b.String())
	require.NoError(t, err)
	assert.Equal(t, 5001, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 批次边界后出错：第二批 Begin 失败应带着已提交的计数返回错误，且不触碰旧事务
func TestImportCSVBeginFailureAfterBoundary(t *testing.T) {
	mock, run := newImportMock(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(upsertVoterSQL)
	for i := 0; i < 5000; i++ {
		mock.ExpectExec(upsertVoterSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection reset"))

	var b strings.Builder
	for i := 0; i < 5001; i++ {
		fmt.Fprintf(&b, "v%d,Pessoa %d,,,Recife,PE,,,\n", i, i)
	}
	count, err := run(b.String())
	require.Error(t, err)
	assert.Equal(t, 5000, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
