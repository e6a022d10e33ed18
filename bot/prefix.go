package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"justbot/bot/common"
	"justbot/models"
	"justbot/service"
)

// handlePrefixCommand runs the text-command surface. Prefix commands call
// the same services as their slash equivalents; only the bank and game
// commands are exposed this way.
func (b *Bot) handlePrefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, config *models.GuildConfig) {
	prefix := b.config.CommandPrefix
	if prefix == "" || !strings.HasPrefix(m.Content, prefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(args) == 0 {
		return
	}
	command := args[0]
	args = args[1:]

	ctx := context.Background()
	userID, err := common.ParseUserID(m.Author.ID)
	if err != nil {
		return
	}
	guildID, err := common.ParseUserID(m.GuildID)
	if err != nil {
		return
	}

	if b.moderationFeature.IsBlacklistedAuthor(ctx, userID) {
		return
	}

	// 통장 is the legacy alias for the balance check
	if command == "통장" {
		command = "잔액"
	}

	enabled, err := b.services.GuildConfig.IsCommandEnabled(ctx, guildID, command)
	if err != nil {
		log.WithError(err).WithField("command", command).Warn("Failed to check command state")
	} else if !enabled {
		return
	}

	reply := func(text string) {
		if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
			log.WithError(err).Debug("Failed to send prefix command reply")
		}
	}

	switch command {
	case "통장개설", "잔액", "입금", "출금", "송금", "대출", "상환", "거래내역":
		if config.BankChannelID != nil && m.ChannelID != common.FormatUserID(*config.BankChannelID) {
			reply(fmt.Sprintf("은행 명령어는 <#%d> 채널에서만 사용할 수 있습니다.", *config.BankChannelID))
			return
		}
		b.handlePrefixBank(ctx, m, command, args, guildID, userID, reply)
	case "주사위":
		b.handlePrefixDice(ctx, m, args, guildID, userID, reply)
	case "가위바위보":
		b.handlePrefixRPS(ctx, m, args, guildID, userID, reply)
	}
}

func parseAmountArg(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	amount, err := strconv.ParseInt(strings.TrimSuffix(args[0], "원"), 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func (b *Bot) handlePrefixBank(ctx context.Context, m *discordgo.MessageCreate, command string, args []string, guildID, userID int64, reply func(string)) {
	switch command {
	case "통장개설":
		account, err := b.services.Account.OpenAccount(ctx, userID, m.Author.Username)
		if err != nil {
			if errors.Is(err, service.ErrAccountExists) {
				reply("이미 통장을 가지고 계십니다.")
				return
			}
			reply("통장 개설에 실패했습니다.")
			return
		}
		reply(fmt.Sprintf("🏦 통장이 개설되었습니다! 잔액: %s", common.FormatBalance(account.Balance)))

	case "잔액":
		account, err := b.services.Account.GetAccount(ctx, userID)
		if err != nil {
			reply("잔액 조회에 실패했습니다.")
			return
		}
		if account == nil {
			reply("통장이 없습니다. `저스트 통장개설`로 먼저 통장을 만들어주세요.")
			return
		}
		reply(fmt.Sprintf("💰 잔액: %s", common.FormatBalance(account.Balance)))

	case "입금":
		amount, ok := parseAmountArg(args)
		if !ok {
			reply("사용법: `저스트 입금 <금액>`")
			return
		}
		account, err := b.services.Account.Deposit(ctx, guildID, userID, amount)
		if err != nil {
			reply(bankErrorMessage(err))
			return
		}
		reply(fmt.Sprintf("📥 %s 입금 완료. 잔액: %s", common.FormatBalance(amount), common.FormatBalance(account.Balance)))

	case "출금":
		amount, ok := parseAmountArg(args)
		if !ok {
			reply("사용법: `저스트 출금 <금액>`")
			return
		}
		account, err := b.services.Account.Withdraw(ctx, guildID, userID, amount)
		if err != nil {
			reply(bankErrorMessage(err))
			return
		}
		reply(fmt.Sprintf("📤 %s 출금 완료. 잔액: %s", common.FormatBalance(amount), common.FormatBalance(account.Balance)))

	case "송금":
		// A reply-with-ping populates Mentions with no text args.
		if len(m.Mentions) == 0 || len(args) == 0 {
			reply("사용법: `저스트 송금 @멤버 <금액>`")
			return
		}
		target := m.Mentions[0]
		if target.Bot {
			reply("봇에게는 송금할 수 없습니다.")
			return
		}
		amount, ok := parseAmountArg(args[len(args)-1:])
		if !ok {
			reply("사용법: `저스트 송금 @멤버 <금액>`")
			return
		}
		toID, err := common.ParseUserID(target.ID)
		if err != nil {
			return
		}
		if toID == userID {
			reply("자기 자신에게는 송금할 수 없습니다.")
			return
		}
		if err := b.services.Account.Transfer(ctx, guildID, userID, toID, amount, target.Username); err != nil {
			reply(bankErrorMessage(err))
			return
		}
		reply(fmt.Sprintf("💸 %s님에게 %s을(를) 송금했습니다.", target.Username, common.FormatBalance(amount)))

	case "대출":
		amount, ok := parseAmountArg(args)
		if !ok {
			reply("사용법: `저스트 대출 <금액>`")
			return
		}
		loan, err := b.services.Loan.TakeLoan(ctx, guildID, userID, amount)
		if err != nil {
			reply(loanErrorMessage(err))
			return
		}
		reply(fmt.Sprintf("🏦 %s 대출 완료. 총 상환액: %s", common.FormatBalance(loan.Principal), common.FormatBalance(loan.TotalOwed)))

	case "상환":
		amount, ok := parseAmountArg(args)
		if !ok {
			reply("사용법: `저스트 상환 <금액>`")
			return
		}
		loan, err := b.services.Loan.RepayLoan(ctx, guildID, userID, amount)
		if err != nil {
			reply(loanErrorMessage(err))
			return
		}
		if loan.Status == models.LoanStatusPaid {
			reply("🎉 대출을 전액 상환했습니다!")
			return
		}
		reply(fmt.Sprintf("💳 %s 상환 완료. 남은 상환액: %s", common.FormatBalance(amount), common.FormatBalance(loan.Remaining())))

	case "거래내역":
		entries, err := b.services.Account.GetHistory(ctx, userID, 10)
		if err != nil || len(entries) == 0 {
			reply("거래 내역이 없습니다.")
			return
		}
		var sb strings.Builder
		sb.WriteString("📜 최근 거래 내역\n")
		for _, entry := range entries {
			sb.WriteString(fmt.Sprintf("- %s: %s → 잔액 %s\n", entry.EntryType, common.FormatBalance(entry.ChangeAmount), common.FormatBalance(entry.BalanceAfter)))
		}
		reply(sb.String())
	}
}

func bankErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNoAccount):
		return "통장이 없습니다. `저스트 통장개설`로 먼저 통장을 만들어주세요."
	case errors.Is(err, service.ErrInsufficientBalance):
		return "잔액이 부족합니다."
	case errors.Is(err, service.ErrInvalidAmount):
		return "금액은 1원 이상이어야 합니다."
	default:
		return "❌ 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	}
}

func loanErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrLoansDisabled):
		return "이 서버에서는 대출이 비활성화되어 있습니다."
	case errors.Is(err, service.ErrLoanTooLarge):
		return "대출 한도를 초과했습니다."
	case errors.Is(err, service.ErrActiveLoan):
		return "이미 상환 중인 대출이 있습니다."
	case errors.Is(err, service.ErrNoActiveLoan):
		return "상환할 대출이 없습니다."
	case errors.Is(err, service.ErrOverpayment):
		return "남은 상환액보다 많이 갚을 수 없습니다."
	default:
		return bankErrorMessage(err)
	}
}

func (b *Bot) handlePrefixDice(ctx context.Context, m *discordgo.MessageCreate, args []string, guildID, userID int64, reply func(string)) {
	sides := 6
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil {
			sides = parsed
		}
	}

	roll, err := b.services.Game.RollDice(ctx, guildID, userID, m.Author.Username, sides)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDiceSides) {
			reply("주사위는 2면 이상이어야 합니다.")
			return
		}
		reply("주사위를 굴리지 못했습니다.")
		return
	}
	reply(fmt.Sprintf("🎲 %d면 주사위: **%d**", sides, roll))
}

func (b *Bot) handlePrefixRPS(ctx context.Context, m *discordgo.MessageCreate, args []string, guildID, userID int64, reply func(string)) {
	choices := map[string]models.RPSChoice{"바위": models.RPSRock, "보": models.RPSPaper, "가위": models.RPSScissors}
	if len(args) == 0 {
		reply("사용법: `저스트 가위바위보 <가위|바위|보>`")
		return
	}
	choice, ok := choices[args[0]]
	if !ok {
		reply("가위, 바위, 보 중에서 선택해주세요.")
		return
	}

	result, err := b.services.Game.PlayRPS(ctx, guildID, userID, m.Author.Username, choice)
	if err != nil {
		reply("가위바위보에 실패했습니다.")
		return
	}

	names := map[models.RPSChoice]string{models.RPSRock: "바위", models.RPSPaper: "보", models.RPSScissors: "가위"}
	var verdict string
	switch result.Outcome {
	case "win":
		verdict = "🎉 이겼습니다!"
	case "lose":
		verdict = "😢 졌습니다..."
	default:
		verdict = "🤝 비겼습니다."
	}
	reply(fmt.Sprintf("✂️ 당신: %s / 봇: %s — %s", names[result.Player], names[result.Bot], verdict))
}
