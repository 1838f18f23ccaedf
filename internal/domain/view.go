package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ViewDedupWindow - окно дедупликации просмотров. Окно аппроксимируется
// часовыми интервалами, чтобы уникальный индекс (пост, ключ, интервал)
// атомарно отсекал дубликаты на стороне хранилища.
const ViewDedupWindow = time.Hour

// ViewDedupKey строит ключ источника просмотра: id пользователя, если
// зритель аутентифицирован, иначе отпечаток клиента.
func ViewDedupKey(userID *string, fingerprint string) string {
	if userID != nil && *userID != "" {
		return "user:" + *userID
	}
	return "fp:" + fingerprint
}

// ViewBucket возвращает начало интервала дедупликации для момента t.
func ViewBucket(t time.Time) time.Time {
	return t.UTC().Truncate(ViewDedupWindow)
}

// ClientFingerprint сворачивает (ip, session) в стабильный отпечаток.
func ClientFingerprint(ip, session string) string {
	sum := sha256.Sum256([]byte(ip + "|" + session))
	return hex.EncodeToString(sum[:16])
}
