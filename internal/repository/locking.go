package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate 在支持行锁的方言上加 FOR UPDATE；sqlite 写事务本身是串行的
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isPermutation 判断 ids 是否恰好是 existing 的一个排列
func isPermutation(existing, ids []string) bool {
	if len(existing) != len(ids) {
		return false
	}
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return len(seen) == 0
}
