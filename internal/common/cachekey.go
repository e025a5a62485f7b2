package common

import "strconv"

// Key is a cache key of the form "<resourceType>:<id>[:<viewerId>[:editor]]". Keys are
// only built through the functions below so that reads and invalidations
// agree on the exact string.
type Key string

const (
	resourceLesson         = "lesson"
	resourceLessonVersions = "lesson_versions"
)

func (k Key) String() string {
	return string(k)
}

func LessonKey(id int) Key {
	return Key(resourceLesson + ":" + strconv.Itoa(id))
}

// LessonViewerKey is used when the response depends on who is asking. The
// role is part of the key, so a user whose role changes never reads an entry
// cached under the old one.
func LessonViewerKey(id, viewerID int, editor bool) Key {
	k := resourceLesson + ":" + strconv.Itoa(id) + ":" + strconv.Itoa(viewerID)
	if editor {
		k += ":editor"
	}
	return Key(k)
}

// LessonPrefix matches every viewer scoped key of the lesson, not LessonKey.
func LessonPrefix(id int) string {
	return resourceLesson + ":" + strconv.Itoa(id) + ":"
}

func LessonVersionsKey(id int) Key {
	return Key(resourceLessonVersions + ":" + strconv.Itoa(id))
}
