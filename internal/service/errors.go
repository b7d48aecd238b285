package service

import (
	"lms_backend/internal/util"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// storeErr 把 gorm 的未找到转换为 util.ErrNotFound，其余错误附带操作名
func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return errors.Wrap(err, op)
}
