package domain

// Task is the worker's view of a task row: just enough to dispatch it.
type Task struct {
	TaskID    string
	TaskType  string
	InputData string
	Status    string
}

// TaskMessage represents a task message consumed from RabbitMQ
type TaskMessage struct {
	TaskID      string
	DeliveryTag uint64
}
