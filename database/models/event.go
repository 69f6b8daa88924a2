// Copyright 2025 The SofcialFi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

import "time"

// Event is one row of the append-only fact journal. Payload holds the
// JSON-encoded event data; an external indexer reconstructs registry
// state by replaying rows in id order.
type Event struct {
	ID        uint   `gorm:"primarykey"`
	Type      string `gorm:"index"`
	Timestamp time.Time
	Payload   []byte
}

func (Event) TableName() string {
	return "event"
}

// MigrateModels is the list of models auto-migrated at store open
var MigrateModels = []any{
	&Event{},
}
