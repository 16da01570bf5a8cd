package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dayzadb/adb-dashboard/internal/domain/model"
)

func newTestFeedback() (*FeedbackService, *fakeFeedbackRepo) {
	repo := &fakeFeedbackRepo{}
	return NewFeedbackService(repo, testPolicy(), testLogger()), repo
}

func TestFeedbackSubmit(t *testing.T) {
	tests := []struct {
		name    string
		fb      *model.Feedback
		wantErr bool
		// ожидаемые категория/приоритет после применения значений по умолчанию
		wantCategory string
		wantPriority string
	}{
		{
			"значения по умолчанию",
			&model.Feedback{Subject: "Вопрос", Message: "Как добавить сервер?"},
			false, "general", "normal",
		},
		{
			"явные категория и приоритет",
			&model.Feedback{Subject: "Баг", Message: "Фильтр не работает", Category: "bug", Priority: "high"},
			false, "bug", "high",
		},
		{
			"пустая тема",
			&model.Feedback{Subject: "  ", Message: "текст"},
			true, "", "",
		},
		{
			"пустой текст",
			&model.Feedback{Subject: "тема", Message: ""},
			true, "", "",
		},
		{
			"недопустимая категория",
			&model.Feedback{Subject: "тема", Message: "текст", Category: "complaint"},
			true, "", "",
		},
		{
			"недопустимый приоритет",
			&model.Feedback{Subject: "тема", Message: "текст", Priority: "urgent"},
			true, "", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestFeedback()
			session := testSession("200000000000000001", "user")

			got, err := svc.Submit(context.Background(), session, tt.fb)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Submit() = %v, ожидается ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() ошибка: %v", err)
			}
			if got.UserID != "200000000000000001" {
				t.Errorf("UserID = %q, ожидается ID сессии", got.UserID)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, ожидается %q", got.Category, tt.wantCategory)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("Priority = %q, ожидается %q", got.Priority, tt.wantPriority)
			}
		})
	}
}

func TestFeedbackList_RequiresModerator(t *testing.T) {
	svc, repo := newTestFeedback()
	repo.items = append(repo.items, &model.Feedback{ID: 1, Subject: "тема", Message: "текст"})

	if _, err := svc.List(context.Background(), testSession("200000000000000001", "user"), 100); !errors.Is(err, ErrForbidden) {
		t.Errorf("List() для user = %v, ожидается ErrForbidden", err)
	}

	items, err := svc.List(context.Background(), testSession("200000000000000001", "moderator"), 100)
	if err != nil {
		t.Fatalf("List() для moderator ошибка: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("List() вернул %d обращений, ожидается 1", len(items))
	}
}
