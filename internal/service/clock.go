package service

import "time"

// Clock абстрагирует получение текущего времени, чтобы возрастная логика
// была детерминированной в тестах
type Clock interface {
	Now() time.Time
}

// RealClock возвращает настоящее текущее время
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
