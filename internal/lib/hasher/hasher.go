package hasher

import (
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

// Стоимость фиксирована: смена меняет профиль нагрузки всего сервиса.
const cost = 10

// bcrypt упирается в CPU; семафор не дает захлебнуться пулу обработчиков,
// когда приходит всплеск логинов.
var sem = make(chan struct{}, 2*runtime.GOMAXPROCS(0))

// * Hash возвращает соленый bcrypt-хеш; соль свежая на каждый вызов.
func Hash(password string) (string, error) {
	const op = "lib.hasher.Hash"

	sem <- struct{}{}
	defer func() { <-sem }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// * Compare сравнивает пароль с хешем за константное время.
func Compare(password, hash string) bool {
	sem <- struct{}{}
	defer func() { <-sem }()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
