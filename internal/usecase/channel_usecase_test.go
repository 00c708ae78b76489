package usecase

import (
	"context"
	"errors"
	"testing"

	"rescuebite/internal/domain/entities"
	mock_interfaces "rescuebite/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

func TestChannelUseCase_Create_Validations(t *testing.T) {
	uc := NewChannelUseCase(nil)
	base := CreateChannelInput{
		UserID:            "user-1",
		Name:              "Main till",
		Provider:          entities.ProviderMpesa,
		ProviderChannelID: 7,
	}

	t.Run("missing identity", func(t *testing.T) {
		in := base
		in.UserID = " "
		if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrMissingIdentity) {
			t.Fatalf("expected ErrMissingIdentity, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		in := base
		in.Name = ""
		if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrInvalidChannelName) {
			t.Fatalf("expected ErrInvalidChannelName, got %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		in := base
		in.Provider = "paypal"
		if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrInvalidProvider) {
			t.Fatalf("expected ErrInvalidProvider, got %v", err)
		}
	})

	t.Run("wallet without network code", func(t *testing.T) {
		in := base
		in.IsWallet = true
		if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrNetworkCodeRequired) {
			t.Fatalf("expected ErrNetworkCodeRequired, got %v", err)
		}
	})

	t.Run("network code on non-wallet", func(t *testing.T) {
		in := base
		in.NetworkCode = "63902"
		if _, err := uc.Create(context.Background(), in); !errors.Is(err, ErrUnexpectedNetworkCode) {
			t.Fatalf("expected ErrUnexpectedNetworkCode, got %v", err)
		}
	})
}

func TestChannelUseCase_Create_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIChannelRepository(ctrl)
	uc := NewChannelUseCase(repo)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ch entities.PaymentChannel) (entities.PaymentChannel, error) {
			if ch.ID == "" {
				t.Fatal("channel id not generated")
			}
			if !ch.IsActive {
				t.Fatal("new channels must start active")
			}
			if ch.NetworkCode != "63902" {
				t.Fatalf("network code not kept: %q", ch.NetworkCode)
			}
			return ch, nil
		})

	ch, err := uc.Create(context.Background(), CreateChannelInput{
		UserID:            "user-1",
		Name:              "Sasapay wallet",
		Provider:          entities.ProviderSasaPay,
		ProviderChannelID: 12,
		IsWallet:          true,
		NetworkCode:       "63902",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Provider != entities.ProviderSasaPay {
		t.Fatalf("unexpected provider: %s", ch.Provider)
	}
}

func TestChannelUseCase_SetActive(t *testing.T) {
	t.Run("unknown channel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIChannelRepository(ctrl)
		uc := NewChannelUseCase(repo)

		repo.EXPECT().SetActive(gomock.Any(), "ch-404", "user-1", false).Return(entities.PaymentChannel{}, nil)

		if _, err := uc.SetActive(context.Background(), "ch-404", "user-1", false); !errors.Is(err, ErrChannelNotFound) {
			t.Fatalf("expected ErrChannelNotFound, got %v", err)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIChannelRepository(ctrl)
		uc := NewChannelUseCase(repo)

		repo.EXPECT().SetActive(gomock.Any(), "ch-1", "user-1", false).Return(entities.PaymentChannel{ID: "ch-1", IsActive: false}, nil)

		ch, err := uc.SetActive(context.Background(), "ch-1", "user-1", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ch.IsActive {
			t.Fatal("channel still active")
		}
	})
}
