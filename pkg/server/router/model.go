package router

const (
	IDParam    string = "id"
	LevelParam string = "level"
)
