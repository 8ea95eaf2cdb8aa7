package config

import "time"

// SchedulerConfig — настройки периодического конвейера доступности.
type SchedulerConfig struct {
	// Интервал между тиками оркестратора.
	Interval time.Duration
	// Горизонт материализации в днях (сегодня .. сегодня+N).
	HorizonDays int
	// Окно загрузки pending-слотов для оценки публикации, в днях.
	ReleaseWindowDays int
	// Сколько тенантов обрабатывается параллельно внутри одного тика.
	// 1 — последовательная обработка.
	Parallelism int
	// Адрес HTTP-эндпоинта метрик, пустая строка отключает его.
	MetricsAddr string
	// Уровень логирования: debug/info/warn/error.
	LogLevel string
}

func LoadSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval:          time.Duration(getEnvInt("SCHEDULER_INTERVAL_MIN", 5)) * time.Minute,
		HorizonDays:       getEnvInt("SCHEDULER_HORIZON_DAYS", 30),
		ReleaseWindowDays: getEnvInt("SCHEDULER_RELEASE_WINDOW_DAYS", 30),
		Parallelism:       getEnvInt("SCHEDULER_PARALLELISM", 1),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9100"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// ResilienceConfig — настройки circuit breaker и ретраев синхронизации.
type ResilienceConfig struct {
	// Порог отказов, после которого breaker открывается.
	FailureThreshold int
	// Окно охлаждения: пока оно не истекло, breaker остаётся открытым.
	Cooldown time.Duration
	// Максимум асинхронных попыток на одну задачу.
	RetryAttempts int
	// База бэкоффа: пауза перед попыткой N равна N * RetryBackoff.
	RetryBackoff time.Duration
	// Размер пула воркеров ретраев.
	RetryWorkers int
	// Ёмкость очереди ретраев.
	RetryQueueSize int
}

func LoadResilienceConfig() *ResilienceConfig {
	return &ResilienceConfig{
		FailureThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
		Cooldown:         time.Duration(getEnvInt("BREAKER_COOLDOWN_MIN", 5)) * time.Minute,
		RetryAttempts:    getEnvInt("SYNC_RETRY_ATTEMPTS", 3),
		RetryBackoff:     time.Duration(getEnvInt("SYNC_RETRY_BACKOFF_SEC", 1)) * time.Second,
		RetryWorkers:     getEnvInt("SYNC_RETRY_WORKERS", 2),
		RetryQueueSize:   getEnvInt("SYNC_RETRY_QUEUE_SIZE", 256),
	}
}
