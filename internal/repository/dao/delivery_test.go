package dao

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"gitee.com/flycash/workshop-notification/internal/domain"
	"gitee.com/flycash/workshop-notification/internal/errs"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

var deliveryColumns = []string{
	"id", "tenant_id", "event", "channel", "recipient", "status",
	"external_id", "attempts", "max_attempts", "version", "ctime", "utime",
}

func TestDeliveryDAO_Create(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "创建成功",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `delivery_records`")).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "外部ID冲突",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `delivery_records`")).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'wa-1' for key 'uk_external_id'"})
			},
			wantErr: errs.ErrDeliveryDuplicate,
		},
		{
			name: "数据库错误",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `delivery_records`")).
					WillReturnError(errors.New("mock db error"))
			},
			wantErr: errors.New("mock db error"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			tc.mock(mock)
			d := NewDeliveryDAO(db)

			r, err := d.Create(context.Background(), DeliveryRecord{
				ID:         123,
				TenantID:   42,
				Event:      domain.EventOSCreated.String(),
				Channel:    domain.ChannelWhatsApp.String(),
				Recipient:  "5511987654321",
				Status:     domain.DeliveryStatusSent.String(),
				ExternalID: sql.NullString{String: "wa-1", Valid: true},
			})
			switch {
			case tc.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, 1, r.Version)
				assert.NotZero(t, r.Ctime)
				assert.Equal(t, r.Ctime, r.Utime)
			case errors.Is(tc.wantErr, errs.ErrDeliveryDuplicate):
				assert.ErrorIs(t, err, errs.ErrDeliveryDuplicate)
			default:
				assert.EqualError(t, err, tc.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeliveryDAO_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("找到", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(deliveryColumns).
			AddRow(123, 42, "OS_CRIADA", "EMAIL", "cliente@example.com", "ENVIADO", "e-1", 1, 3, 2, 1000, 2000)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `delivery_records` WHERE id = ?")).
			WillReturnRows(rows)

		r, err := NewDeliveryDAO(db).GetByID(context.Background(), 123)
		require.NoError(t, err)
		assert.Equal(t, uint64(123), r.ID)
		assert.Equal(t, sql.NullString{String: "e-1", Valid: true}, r.ExternalID)
		assert.Equal(t, 2, r.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("不存在", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `delivery_records` WHERE id = ?")).
			WillReturnRows(sqlmock.NewRows(deliveryColumns))

		_, err := NewDeliveryDAO(db).GetByID(context.Background(), 123)
		assert.ErrorIs(t, err, errs.ErrDeliveryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeliveryDAO_Claim(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		affected int64
		err      error
		wantErr  error
	}{
		{name: "认领成功", affected: 1},
		{name: "版本不匹配", affected: 0, wantErr: errs.ErrDeliveryVersionMismatch},
		{name: "数据库错误", err: errors.New("mock db error"), wantErr: errors.New("mock db error")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			exp := mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_records` SET `status`=?,`utime`=?,`version`=version + 1 WHERE id = ? AND version = ? AND status IN (?,?)")).
				WithArgs(domain.DeliveryStatusPending.String(), sqlmock.AnyArg(), 123, 2, "FALHA", "AGENDADO")
			if tc.err != nil {
				exp.WillReturnError(tc.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tc.affected))
			}

			err := NewDeliveryDAO(db).Claim(context.Background(), 123, 2, []string{"FALHA", "AGENDADO"})
			switch {
			case tc.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tc.wantErr, errs.ErrDeliveryVersionMismatch):
				assert.ErrorIs(t, err, errs.ErrDeliveryVersionMismatch)
			default:
				assert.EqualError(t, err, tc.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeliveryDAO_CASResult(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		mock    func(exp *sqlmock.ExpectedExec)
		wantErr error
	}{
		{
			name: "写回成功",
			mock: func(exp *sqlmock.ExpectedExec) {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "被其他实例抢先",
			mock: func(exp *sqlmock.ExpectedExec) {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: errs.ErrDeliveryVersionMismatch,
		},
		{
			name: "外部ID冲突",
			mock: func(exp *sqlmock.ExpectedExec) {
				exp.WillReturnError(&mysql.MySQLError{Number: 1062})
			},
			wantErr: errs.ErrDeliveryDuplicate,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			tc.mock(mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_records` SET")))

			err := NewDeliveryDAO(db).CASResult(context.Background(), DeliveryRecord{
				ID:         123,
				Status:     domain.DeliveryStatusSent.String(),
				ExternalID: sql.NullString{String: "wa-1", Valid: true},
				Attempts:   1,
				Version:    3,
			})
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeliveryDAO_UpdateStatusByExternalID(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_records` SET `status`=?,`utime`=?,`version`=version + 1 WHERE external_id = ? AND status IN (?,?)")).
		WithArgs("LIDO", sqlmock.AnyArg(), "wa-1", "ENVIADO", "ENTREGUE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cnt, err := NewDeliveryDAO(db).UpdateStatusByExternalID(context.Background(), "wa-1", "LIDO", []string{"ENVIADO", "ENTREGUE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryDAO_Cancel(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	// 终态的记录不会被取消
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_records` SET `external_id`=?,`status`=?,`utime`=?,`version`=version + 1 WHERE id = ? AND version = ? AND status NOT IN (?,?,?)")).
		WithArgs(nil, "CANCELADO", sqlmock.AnyArg(), 123, 4, "ENTREGUE", "LIDO", "CANCELADO").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewDeliveryDAO(db).Cancel(context.Background(), 123, 4)
	assert.ErrorIs(t, err, errs.ErrDeliveryVersionMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryDAO_FindRetryable(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows(deliveryColumns).
		AddRow(1, 42, "OS_CRIADA", "EMAIL", "a@example.com", "FALHA", nil, 1, 3, 3, 1000, 2000).
		AddRow(2, 42, "OS_CRIADA", "WHATSAPP", "11987654321", "FALHA", nil, 2, 3, 5, 1000, 2100)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `delivery_records` WHERE status = ? AND attempts < max_attempts AND utime <= ? ORDER BY utime ASC LIMIT")).
		WillReturnRows(rows)

	res, err := NewDeliveryDAO(db).FindRetryable(context.Background(), 5000, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.False(t, res[0].ExternalID.Valid)
	assert.Equal(t, 2, res[1].Attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryDAO_MarkTimeoutPendingAsFailed(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_records` SET `error_code`=?,`error_message`=?,`external_id`=?,`status`=?,`utime`=?,`version`=version + 1 WHERE status = ? AND utime <= ? LIMIT")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cnt, err := NewDeliveryDAO(db).MarkTimeoutPendingAsFailed(context.Background(), 5000, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryDAO_DeleteBefore(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `delivery_records` WHERE ctime < ?")).
		WillReturnResult(sqlmock.NewResult(0, 500))

	cnt, err := NewDeliveryDAO(db).DeleteBefore(context.Background(), 5000, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
